package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/equipdash/engine"
)

func TestBuildViewState(t *testing.T) {
	state, err := buildViewState(engine.DefaultViewState(), "pump", "flowrate", "desc", 3, 25)
	if err != nil {
		t.Fatal(err)
	}
	want := engine.ViewState{
		SearchTerm:    "pump",
		SortField:     engine.FieldFlowrate,
		SortDirection: engine.Descending,
		CurrentPage:   3,
		ItemsPerPage:  25,
	}
	if state != want {
		t.Errorf("state = %+v, want %+v", state, want)
	}

	state, err = buildViewState(engine.DefaultViewState(), "", "", "desc", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if state.SortField != engine.FieldName || state.SortDirection != engine.Descending || state.CurrentPage != 1 {
		t.Errorf("name desc state = %+v", state)
	}

	if _, err := buildViewState(engine.DefaultViewState(), "", "weight", "asc", 1, 0); err == nil {
		t.Error("expected error for unknown sort field")
	}
	if _, err := buildViewState(engine.DefaultViewState(), "", "", "up", 1, 0); err == nil {
		t.Error("expected error for bad direction")
	}
}

func TestChartCSV(t *testing.T) {
	chart := &engine.ChartConfig{
		XAxis: "Equipment",
		Series: []engine.ChartSeries{
			{Name: "Pressure", Data: []engine.ChartPoint{{Label: "P1", Value: 5.25}, {Label: "P2", Missing: true}}},
			{Name: "Temperature", Data: []engine.ChartPoint{{Label: "P1", Value: 110}, {Label: "P2", Value: 98}}},
		},
	}
	var buf bytes.Buffer
	if err := writeChartCSV(&buf, chart); err != nil {
		t.Fatal(err)
	}
	want := "Equipment,Pressure,Temperature\nP1,5.25,110\nP2,,98\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := writeChartCSV(&buf, nil); err != nil || buf.String() != "Result,No data\n" {
		t.Errorf("nil chart csv = %q, %v", buf.String(), err)
	}
}

func TestSummaryCSV(t *testing.T) {
	records := []engine.EquipmentRecord{
		{ID: "1", Name: "P1", Type: "Pump", Flowrate: engine.Some(10), Pressure: engine.None(), Temperature: engine.Some(90)},
		{ID: "2", Name: "V1", Type: "Valve", Flowrate: engine.Some(20), Pressure: engine.None(), Temperature: engine.Some(95.5)},
	}
	var buf bytes.Buffer
	if err := writeSummaryCSV(&buf, engine.ComputeSummary(records)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"total_count,2\n", "avg_flowrate,15\n", "avg_pressure,\n", "max_temperature,95.50\n", "type:Pump,1\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary csv missing %q:\n%s", want, out)
		}
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plant.csv")
	out := filepath.Join(dir, "out.csv")
	data := "Equipment Name,Type,Flowrate,Pressure,Temperature\nPump-1,Pump,120,5.2,110\nValve-1,Valve,60,4.1,105\nValve-2,Valve,60,3.9,100\n"
	if err := os.WriteFile(in, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run([]string{"export", "--file", in, "--search", "valve", "--sort", "pressure",
		"--env-file", filepath.Join(dir, "none.env"), "--out", out})
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "Equipment Name,Type,Flowrate,Pressure,Temperature\nValve-2,Valve,60,3.9,100\nValve-1,Valve,60,4.1,105\n"
	if string(got) != want {
		t.Errorf("export = %q, want %q", got, want)
	}
}

func TestRunErrors(t *testing.T) {
	if err := run([]string{"frobnicate"}); err == nil {
		t.Error("expected error for unknown command")
	}
	if err := run([]string{"view", "--format", "xml", "--file", "x.csv"}); err == nil {
		t.Error("expected error for bad format")
	}
	if err := run([]string{"discover"}); err == nil {
		t.Error("expected error without --file")
	}
}
