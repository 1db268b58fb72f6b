package engine

import (
	"cmp"
	"slices"
	"strings"
)

// ============================================================================
// SORTING — One Comparator for Table and Charts
// ============================================================================
// CompareRecords is the only ordering in the engine. The table sort and the
// top-N chart both go through SortView so ties break the same way.
//
// Ordering rules:
//   text fields    — case-insensitive byte order
//   numeric fields — numeric; absent readings sort below every real value
//                    and equal to each other (keeps the order total)
//   desc           — comparator sign inverted; stability still keeps ties
//                    in input order
// ============================================================================

// CompareRecords three-way compares a and b on field, ascending.
// Unknown fields compare by name.
func CompareRecords(a, b EquipmentRecord, field Field) int {
	if field.IsNumeric() {
		return CompareMeasurements(a.Measure(field), b.Measure(field))
	}
	if field != FieldType {
		field = FieldName
	}
	return compareText(a.Text(field), b.Text(field))
}

// CompareMeasurements orders absent < any real reading.
func CompareMeasurements(a, b Measurement) int {
	av, aok := a.Get()
	bv, bok := b.Get()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return cmp.Compare(av, bv)
}

func compareText(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// SortView returns a stably sorted SubView of view. The parent is untouched.
func SortView(view RecordView, field Field, direction SortDirection) RecordView {
	n := view.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	sign := 1
	if direction == Descending {
		sign = -1
	}

	slices.SortStableFunc(indices, func(i, j int) int {
		return sign * CompareRecords(view.Record(i), view.Record(j), field)
	})

	return newSubView(view, indices)
}

// TopN returns the first n records of view sorted descending by field.
// n <= 0 returns the whole sorted view.
func TopN(view RecordView, field Field, n int) RecordView {
	sorted := SortView(view, field, Descending)
	if n <= 0 || n >= sorted.Len() {
		return sorted
	}
	return Slice(sorted, 0, n)
}
