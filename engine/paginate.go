package engine

// ============================================================================
// PAGINATION — Page Window Arithmetic
// ============================================================================
// totalPages never drops below 1 so the page controls stay consistent on an
// empty result. An out-of-range page yields an empty window; correcting the
// stored page number is the caller's job (see FitPage and the ClampPage action).
// ============================================================================

// Page is the window of one table page over n matched rows.
type Page struct {
	Number     int `json:"number"`
	TotalPages int `json:"totalPages"`
	StartIndex int `json:"startIndex"` // (Number-1) * perPage; 0 when Number is out of range
	EndIndex   int `json:"endIndex"`   // exclusive; EndIndex <= StartIndex means empty
}

// Empty reports whether the page shows no rows.
func (p Page) Empty() bool { return p.EndIndex <= p.StartIndex }

// TotalPages returns ceil(n / perPage), minimum 1.
func TotalPages(n, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultItemsPerPage
	}
	if n <= 0 {
		return 1
	}
	return (n + perPage - 1) / perPage
}

// Paginate computes the window for page over n rows.
func Paginate(n, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultItemsPerPage
	}
	total := TotalPages(n, perPage)
	p := Page{Number: page, TotalPages: total}
	if page < 1 || page > total {
		return p
	}

	// page <= total keeps the product within n + perPage.
	start := (page - 1) * perPage
	p.StartIndex = start
	end := start + perPage
	if end > n {
		end = n
	}
	p.EndIndex = end
	return p
}

// FitPage clamps page into [1, totalPages].
func FitPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
