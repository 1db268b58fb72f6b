package engine

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns caller data. It reads through this interface.
//
// Implementations:
//   SliceView — wraps []EquipmentRecord
//   SubView   — filtered or reordered subset (indices into parent, zero-copy)
//
// Search and sort both produce SubViews, so the caller's slice is never
// reordered or written.
// ============================================================================

// RecordView provides indexed access to a record set.
// The engine calls these in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Record(index int) EquipmentRecord
	Text(index int, field Field) string
	Measure(index int, field Field) Measurement
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView wraps an []EquipmentRecord slice as a RecordView.
type SliceView struct {
	records []EquipmentRecord
}

// NewSliceView creates a RecordView over records. The slice is not copied.
func NewSliceView(records []EquipmentRecord) RecordView {
	return &SliceView{records: records}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Record(i int) EquipmentRecord {
	if i < 0 || i >= len(v.records) {
		return EquipmentRecord{}
	}
	return v.records[i]
}

func (v *SliceView) Text(i int, field Field) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Text(field)
}

func (v *SliceView) Measure(i int, field Field) Measurement {
	if i < 0 || i >= len(v.records) {
		return Measurement{}
	}
	return v.records[i].Measure(field)
}

// ============================================================================
// SUB VIEW — filtered/reordered subset (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView in a given order.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Record(i int) EquipmentRecord {
	if i < 0 || i >= len(v.indices) {
		return EquipmentRecord{}
	}
	return v.parent.Record(v.indices[i])
}

func (v *SubView) Text(i int, field Field) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Text(v.indices[i], field)
}

func (v *SubView) Measure(i int, field Field) Measurement {
	if i < 0 || i >= len(v.indices) {
		return Measurement{}
	}
	return v.parent.Measure(v.indices[i], field)
}

// ============================================================================
// HELPERS
// ============================================================================

// Slice returns the view rows in [start, end), clamped to the view bounds.
func Slice(view RecordView, start, end int) RecordView {
	n := view.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return newSubView(view, nil)
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return newSubView(view, indices)
}

// Materialize copies the view rows into a fresh slice (never nil).
func Materialize(view RecordView) []EquipmentRecord {
	out := make([]EquipmentRecord, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		out = append(out, view.Record(i))
	}
	return out
}
