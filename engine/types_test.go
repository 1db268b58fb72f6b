package engine

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMeasurementJSON(t *testing.T) {
	r := EquipmentRecord{ID: "1", Name: "Pump-1", Type: "Pump", Flowrate: Some(12.5), Pressure: None(), Temperature: Measurement{Value: math.Inf(1), Valid: true}}

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"1","name":"Pump-1","type":"Pump","flowrate":12.5,"pressure":null,"temperature":null}`
	assertEqual(t, string(raw), want, "encoded record")

	var back EquipmentRecord
	if err := json.Unmarshal([]byte(`{"id":"2","flowrate":0,"pressure":null}`), &back); err != nil {
		t.Fatal(err)
	}
	assertMeasurement(t, back.Flowrate, 0, "zero is a reading")
	assertAbsent(t, back.Pressure, "null")
	assertAbsent(t, back.Temperature, "missing key")

	if err := json.Unmarshal([]byte(`{"flowrate":"fast"}`), &back); err == nil {
		t.Error("expected error for non-numeric reading")
	}
}

func TestMeasurementHelpers(t *testing.T) {
	assertEqual(t, Some(math.NaN()).Present(), false, "NaN")
	assertEqual(t, Some(-4).Present(), true, "negative")
	assertEqual(t, None().Or(7), 7.0, "fallback")
	assertEqual(t, Some(3).Or(7), 3.0, "value")
}

func TestParseFieldAndDirection(t *testing.T) {
	f, ok := ParseField(" Flowrate ")
	assertEqual(t, ok, true, "parsed")
	assertEqual(t, f, FieldFlowrate, "field")

	_, ok = ParseField("serial")
	assertEqual(t, ok, false, "unknown field")

	d, ok := ParseDirection("DESC")
	assertEqual(t, ok, true, "parsed")
	assertEqual(t, d, Descending, "direction")

	_, ok = ParseDirection("sideways")
	assertEqual(t, ok, false, "unknown direction")
}

func TestSliceAndMaterialize(t *testing.T) {
	view := NewSliceView(sampleRecords)

	assertEqual(t, Slice(view, 2, 4).Len(), 2, "window")
	assertEqual(t, Slice(view, -3, 2).Len(), 2, "clamped start")
	assertEqual(t, Slice(view, 6, 99).Len(), 2, "clamped end")
	assertEqual(t, Slice(view, 5, 5).Len(), 0, "empty")

	rows := Materialize(Slice(view, 9, 12))
	if rows == nil {
		t.Fatal("Materialize returned nil")
	}
	assertEqual(t, len(rows), 0, "out of range")
}
