package engine

import (
	"fmt"
	"math"
	"testing"
)

// ============================================================================
// FIXTURES + ASSERT HELPERS
// ============================================================================

func rec(id, name, typ string, flow, pressure, temp float64) EquipmentRecord {
	return EquipmentRecord{
		ID:          id,
		Name:        name,
		Type:        typ,
		Flowrate:    Some(flow),
		Pressure:    Some(pressure),
		Temperature: Some(temp),
	}
}

// pumpValveRecords returns 12 records: 3 "Pump", 9 "Valve", interleaved so
// the source order is not already grouped.
func pumpValveRecords() []EquipmentRecord {
	var out []EquipmentRecord
	pumps := 0
	for i := 1; i <= 12; i++ {
		typ := "Valve"
		if i%4 == 2 && pumps < 3 {
			typ = "Pump"
			pumps++
		}
		out = append(out, rec(fmt.Sprint(i), fmt.Sprintf("Unit-%02d", 13-i), typ, float64(i*10), float64(i), float64(100+i)))
	}
	return out
}

// sampleRecords mirrors a small plant upload with mixed casing, ties and a
// missing reading.
var sampleRecords = []EquipmentRecord{
	rec("1", "Pump-1", "Pump", 120, 5.2, 110),
	rec("2", "Compressor-1", "Compressor", 95, 8.4, 95),
	rec("3", "Valve-1", "Valve", 60, 4.1, 105),
	rec("4", "HeatExchanger-1", "HeatExchanger", 150, 6.2, 130),
	rec("5", "pump-2", "pump", 132.5, 5.6, 115),
	{ID: "6", Name: "Reactor-1", Type: "Reactor", Flowrate: None(), Pressure: Some(7.5), Temperature: Some(140)},
	rec("7", "Condenser-1", "Condenser", 60, 4.1, 85),
	rec("8", "Valve-2", "Valve", 60, 3.9, 100),
}

func assertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func assertIDs(t *testing.T, rows []EquipmentRecord, want []string, msg string) {
	t.Helper()
	if len(rows) != len(want) {
		t.Fatalf("%s: got %d rows %v, want %d %v", msg, len(rows), ids(rows), len(want), want)
	}
	for i := range want {
		if rows[i].ID != want[i] {
			t.Fatalf("%s: order %v, want %v", msg, ids(rows), want)
		}
	}
}

func assertMeasurement(t *testing.T, got Measurement, want float64, msg string) {
	t.Helper()
	v, ok := got.Get()
	if !ok {
		t.Errorf("%s: got no data, want %v", msg, want)
		return
	}
	if math.Abs(v-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, v, want)
	}
}

func assertAbsent(t *testing.T, got Measurement, msg string) {
	t.Helper()
	if got.Present() {
		t.Errorf("%s: got %v, want no data", msg, got.Value)
	}
}

func ids(rows []EquipmentRecord) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
