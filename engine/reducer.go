package engine

// ============================================================================
// VIEW REDUCER — (ViewState, Action) → ViewState
// ============================================================================
// Every table control change goes through Reduce so the coupling between
// controls (search resets the page, sort toggles direction) lives in one
// place instead of in each UI handler.
// ============================================================================

// Action is a table control event.
type Action interface {
	apply(ViewState) ViewState
}

// SetSearch replaces the search term and returns to page 1.
type SetSearch struct{ Term string }

// SetSort sorts by Field; re-selecting the current field toggles direction.
type SetSort struct{ Field Field }

// SetPage moves to Page (values below 1 become 1).
type SetPage struct{ Page int }

// ClampPage pulls the current page into [1, TotalPages].
type ClampPage struct{ TotalPages int }

// Reset returns to the default controls, keeping the page size. Dispatch it
// when a new record set replaces the old one.
type Reset struct{}

// Reduce applies action to state. A nil action returns state unchanged.
func Reduce(state ViewState, action Action) ViewState {
	if action == nil {
		return state
	}
	return action.apply(state)
}

func (a SetSearch) apply(s ViewState) ViewState {
	s.SearchTerm = a.Term
	s.CurrentPage = 1
	return s
}

func (a SetSort) apply(s ViewState) ViewState {
	if !a.Field.Valid() {
		return s
	}
	if s.SortField == a.Field {
		if s.SortDirection == Ascending {
			s.SortDirection = Descending
		} else {
			s.SortDirection = Ascending
		}
		return s
	}
	s.SortField = a.Field
	s.SortDirection = Ascending
	return s
}

func (a SetPage) apply(s ViewState) ViewState {
	s.CurrentPage = a.Page
	if s.CurrentPage < 1 {
		s.CurrentPage = 1
	}
	return s
}

func (a ClampPage) apply(s ViewState) ViewState {
	s.CurrentPage = FitPage(s.CurrentPage, a.TotalPages)
	return s
}

func (Reset) apply(s ViewState) ViewState {
	perPage := s.ItemsPerPage
	s = DefaultViewState()
	if perPage > 0 {
		s.ItemsPerPage = perPage
	}
	return s
}
