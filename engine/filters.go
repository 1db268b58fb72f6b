package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Case-Insensitive Search via RecordView
// ============================================================================
// Single-pass filter over name and type. Returns a SubView (index list into
// parent), zero data copy. No locale-aware collation: plain lower-casing.
// ============================================================================

// ApplySearch returns a view of records whose name or type contains term,
// ignoring case. Empty term = no restriction (returns original view).
func ApplySearch(view RecordView, term string) RecordView {
	if term == "" {
		return view
	}

	query := strings.ToLower(term)
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if containsFold(view.Text(i, FieldName), query) || containsFold(view.Text(i, FieldType), query) {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// MatchesSearch reports whether a single record passes ApplySearch.
func MatchesSearch(r EquipmentRecord, term string) bool {
	if term == "" {
		return true
	}
	query := strings.ToLower(term)
	return containsFold(r.Name, query) || containsFold(r.Type, query)
}

// containsFold expects query already lower-cased.
func containsFold(s, query string) bool {
	return strings.Contains(strings.ToLower(s), query)
}
