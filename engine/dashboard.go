package engine

// ============================================================================
// DASHBOARD — One consistent snapshot for the table, summary and charts
// ============================================================================
// Entry point: BuildDashboard(records, state, opts...)
//
// Pipeline:
//   1. ComputeView over the records with the caller's ViewState
//   2. Render the page into TableData
//   3. ComputeSummary over the FULL record set (not just the page)
//   4. Format stat cards and build charts from the same summary
//
// All parts read the same record set, so a caller that swaps record sets
// atomically never renders a table and a summary from different uploads.
// ============================================================================

// Result is the render-ready dashboard snapshot.
type Result struct {
	View    ViewResult    `json:"view"`
	Table   *TableData    `json:"table"`
	Summary SummaryStats  `json:"summary"`
	Cards   *SummaryCards `json:"cards"`
	Charts  *Charts       `json:"charts"`
}

// BuildDashboard computes every dashboard view for records under state.
func BuildDashboard(records []EquipmentRecord, state ViewState, opts ...Option) *Result {
	all := NewSliceView(records)

	view := ComputeViewOf(all, state)
	summary := SummarizeView(all, opts...)

	return &Result{
		View:    view,
		Table:   BuildTable(view, opts...),
		Summary: summary,
		Cards:   BuildSummaryCards(summary),
		Charts:  BuildCharts(all, summary, opts...),
	}
}
