package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — ComputeView + render-ready TableData
// ============================================================================
// Pipeline: search → stable sort → paginate → materialize page rows.
// All steps operate on RecordView; only the final page is copied out.
// ============================================================================

// ComputeView produces the visible page for records under state.
// records is never mutated; Rows is a fresh slice.
func ComputeView(records []EquipmentRecord, state ViewState) ViewResult {
	return ComputeViewOf(NewSliceView(records), state)
}

// ComputeViewOf is ComputeView over any RecordView.
func ComputeViewOf(view RecordView, state ViewState) ViewResult {
	state = state.normalized()

	// 1. Filter
	filtered := ApplySearch(view, state.SearchTerm)

	// 2. Sort
	sorted := SortView(filtered, state.SortField, state.SortDirection)

	// 3. Paginate
	page := Paginate(sorted.Len(), state.CurrentPage, state.ItemsPerPage)

	return ViewResult{
		Rows:         Materialize(Slice(sorted, page.StartIndex, page.EndIndex)),
		TotalPages:   page.TotalPages,
		StartIndex:   page.StartIndex,
		EndIndex:     page.EndIndex,
		TotalMatched: sorted.Len(),
		State:        state,
	}
}

// FilterAndSort returns every matching record in display order, ignoring
// pagination. Used for exports and for checking page coverage.
func FilterAndSort(records []EquipmentRecord, state ViewState) []EquipmentRecord {
	state = state.normalized()
	view := ApplySearch(NewSliceView(records), state.SearchTerm)
	return Materialize(SortView(view, state.SortField, state.SortDirection))
}

// ============================================================================
// TABLE DATA
// ============================================================================

// TableColumns are the equipment table columns in display order.
var TableColumns = []Column{
	{Key: string(FieldName), Label: "Name", Type: "text", Align: "left"},
	{Key: string(FieldType), Label: "Type", Type: "text", Align: "left"},
	{Key: string(FieldFlowrate), Label: "Flowrate", Type: "number", Align: "right"},
	{Key: string(FieldPressure), Label: "Pressure (bar)", Type: "number", Align: "right"},
	{Key: string(FieldTemperature), Label: "Temp (°C)", Type: "number", Align: "right"},
}

// BuildTable renders a ViewResult into display strings.
func BuildTable(result ViewResult, opts ...Option) *TableData {
	cfg := applyOptions(opts)

	rows := make([][]string, 0, len(result.Rows))
	keys := make([]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		rows = append(rows, FormatRow(r, cfg.Placeholder))
		keys = append(keys, r.ID)
	}

	current := result.State.CurrentPage
	return &TableData{
		Title:   "Equipment Data",
		Columns: TableColumns,
		Rows:    rows,
		RowKeys: keys,
		Summary: &Summary{Label: showingLabel(result)},
		Pagination: &Pagination{
			CurrentPage: current,
			TotalPages:  result.TotalPages,
			HasPrev:     current > 1,
			HasNext:     current < result.TotalPages,
		},
	}
}

// FormatRow renders one record as table cells.
func FormatRow(r EquipmentRecord, placeholder string) []string {
	return []string{
		r.Name,
		r.Type,
		FormatMeasurement(r.Flowrate, 1, placeholder),
		FormatMeasurement(r.Pressure, 2, placeholder),
		FormatMeasurement(r.Temperature, 1, placeholder),
	}
}

// FormatMeasurement formats a reading with fixed decimals, or placeholder.
func FormatMeasurement(m Measurement, decimals int, placeholder string) string {
	v, ok := m.Get()
	if !ok {
		return placeholder
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

func showingLabel(result ViewResult) string {
	if result.TotalMatched == 0 {
		return "No matching equipment"
	}
	if result.EndIndex <= result.StartIndex {
		return fmt.Sprintf("Page %d is out of range (%d pages)", result.State.CurrentPage, result.TotalPages)
	}
	return fmt.Sprintf("Showing %d-%d of %s", result.StartIndex+1, result.EndIndex, FormatInt(result.TotalMatched))
}
