package engine

import (
	"math"
	"testing"
)

// ============================================================================
// SORTING TESTS
// ============================================================================

var tiedTypes = []EquipmentRecord{
	rec("a", "Alpha", "Valve", 1, 1, 1),
	rec("b", "Bravo", "pump", 2, 2, 2),
	rec("c", "Charlie", "VALVE", 3, 3, 3),
	rec("d", "Delta", "Pump", 4, 4, 4),
	rec("e", "Echo", "valve", 5, 5, 5),
	rec("f", "Foxtrot", "PUMP", 6, 6, 6),
}

func TestSortViewStableOnTies(t *testing.T) {
	asc := Materialize(SortView(NewSliceView(tiedTypes), FieldType, Ascending))
	assertIDs(t, asc, []string{"b", "d", "f", "a", "c", "e"}, "type asc")

	desc := Materialize(SortView(NewSliceView(tiedTypes), FieldType, Descending))
	assertIDs(t, desc, []string{"a", "c", "e", "b", "d", "f"}, "type desc keeps tie order")
}

func TestSortViewDoesNotReorderParent(t *testing.T) {
	records := append([]EquipmentRecord(nil), tiedTypes...)
	SortView(NewSliceView(records), FieldName, Descending)
	assertIDs(t, records, []string{"a", "b", "c", "d", "e", "f"}, "parent order")
}

func TestSortViewAbsentReadings(t *testing.T) {
	records := []EquipmentRecord{
		rec("1", "One", "Pump", 5, 0, 0),
		{ID: "2", Name: "Two", Type: "Pump", Flowrate: None()},
		rec("3", "Three", "Pump", -2, 0, 0),
		{ID: "4", Name: "Four", Type: "Pump", Flowrate: Measurement{Value: math.NaN(), Valid: true}},
		rec("5", "Five", "Pump", 0, 0, 0),
	}

	asc := Materialize(SortView(NewSliceView(records), FieldFlowrate, Ascending))
	assertIDs(t, asc, []string{"2", "4", "3", "5", "1"}, "flowrate asc")

	desc := Materialize(SortView(NewSliceView(records), FieldFlowrate, Descending))
	assertIDs(t, desc, []string{"1", "5", "3", "2", "4"}, "flowrate desc")
}

func TestCompareRecordsCaseInsensitive(t *testing.T) {
	a := rec("1", "pump-a", "x", 0, 0, 0)
	b := rec("2", "PUMP-A", "X", 0, 0, 0)
	assertEqual(t, CompareRecords(a, b, FieldName), 0, "name fold")
	assertEqual(t, CompareRecords(a, b, FieldType), 0, "type fold")

	c := rec("3", "Zeta", "x", 0, 0, 0)
	assertEqual(t, CompareRecords(b, c, FieldName) < 0, true, "PUMP-A < Zeta")
	assertEqual(t, CompareRecords(c, b, "bogus") > 0, true, "unknown field compares by name")
}

func TestTopNUsesTableOrdering(t *testing.T) {
	records := []EquipmentRecord{
		rec("1", "A", "Pump", 10, 0, 0),
		rec("2", "B", "Pump", 30, 0, 0),
		rec("3", "C", "Pump", 30, 0, 0),
		rec("4", "D", "Pump", 20, 0, 0),
		rec("5", "E", "Pump", 30, 0, 0),
	}
	view := NewSliceView(records)

	top := Materialize(TopN(view, FieldFlowrate, 3))
	assertIDs(t, top, []string{"2", "3", "5"}, "top 3")

	table := ComputeView(records, ViewState{SortField: FieldFlowrate, SortDirection: Descending, CurrentPage: 1, ItemsPerPage: 3})
	assertIDs(t, table.Rows, ids(top), "table page matches top-N")

	assertEqual(t, TopN(view, FieldFlowrate, 0).Len(), 5, "n <= 0 keeps all")
	assertEqual(t, TopN(view, FieldFlowrate, 50).Len(), 5, "n > len keeps all")
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		n, page, per      int
		pages, start, end int
		empty             bool
	}{
		{0, 1, 10, 1, 0, 0, true},
		{12, 1, 10, 2, 0, 10, false},
		{12, 2, 10, 2, 10, 12, false},
		{12, 3, 10, 2, 0, 0, true},
		{12, 0, 10, 2, 0, 0, true},
		{12, math.MaxInt/10 + 2, 10, 2, 0, 0, true},
		{12, math.MinInt, 10, 2, 0, 0, true},
		{10, 1, 10, 1, 0, 10, false},
		{11, 2, 0, 2, 10, 11, false},
	}
	for _, c := range cases {
		p := Paginate(c.n, c.page, c.per)
		assertEqual(t, p.TotalPages, c.pages, "totalPages")
		assertEqual(t, p.StartIndex, c.start, "start")
		assertEqual(t, p.EndIndex, c.end, "end")
		assertEqual(t, p.Empty(), c.empty, "empty")
	}

	assertEqual(t, FitPage(99, 2), 2, "clamp high")
	assertEqual(t, FitPage(-3, 2), 1, "clamp low")
	assertEqual(t, FitPage(2, 0), 1, "zero pages")
}
