package helpers

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/schema"
)

var uploadCSV = []byte(`Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120,5.2,110
Compressor-1,Compressor,95,8.4,95
,Valve,60,4.1,105
Reactor-1,Reactor,,7.5,140
Condenser-1,Condenser,sixty,4.1,85
,,,,
Valve-2,Valve,"1,060",3.9
`)

func TestParseCSVAuto(t *testing.T) {
	records, report, err := ParseCSVAuto(uploadCSV)
	if err != nil {
		t.Fatalf("ParseCSVAuto failed: %v", err)
	}

	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}
	if report.Rows != 6 || report.Accepted != 5 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Dropped) != 1 || report.Dropped[0].Row != 3 {
		t.Errorf("dropped = %+v", report.Dropped)
	}
	if len(report.InvalidValues) != 1 || report.InvalidValues[0].Value != "sixty" || report.InvalidValues[0].Column != "Flowrate" {
		t.Errorf("invalid = %+v", report.InvalidValues)
	}

	first := records[0]
	if first.ID != "1" || first.Name != "Pump-1" || first.Flowrate.Or(0) != 120 {
		t.Errorf("first = %+v", first)
	}
	if records[2].Flowrate.Present() {
		t.Error("blank flowrate should be absent")
	}
	if records[3].Flowrate.Present() {
		t.Error("non-numeric flowrate should be absent")
	}

	last := records[4]
	if last.ID != "6" || last.Flowrate.Or(0) != 1060 || last.Temperature.Present() {
		t.Errorf("short row = %+v", last)
	}
}

func TestParseCSVDropIncomplete(t *testing.T) {
	records, report, err := ParseCSVAuto(uploadCSV, ParseOptions{DropIncomplete: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
	if len(report.Dropped) != 4 {
		t.Errorf("dropped = %+v", report.Dropped)
	}
}

func TestParseCSVKeepsNullLikeNames(t *testing.T) {
	data := []byte(`Equipment Name,Type,Flowrate,Pressure,Temperature
NA,Pump,120,5.2,110
None,Valve,60,4.1,105
-,N/A,95,8.4,95
  ,Valve,60,3.9,100
Valve-9,   ,60,3.9,100
`)
	records, report, err := ParseCSVAuto(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Name != "NA" || records[1].Name != "None" || records[2].Name != "-" || records[2].Type != "N/A" {
		t.Errorf("names = %q %q %q/%q", records[0].Name, records[1].Name, records[2].Name, records[2].Type)
	}
	if len(report.Dropped) != 2 || report.Dropped[0].Row != 4 || report.Dropped[1].Row != 5 {
		t.Errorf("dropped = %+v", report.Dropped)
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, _, err := ParseCSVAuto([]byte("Equipment Name,Type\nP1,Pump\n"))

	var missing *schema.MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Missing columns: Flowrate") {
		t.Errorf("message = %q", err)
	}
}

func TestParseCSVWithSchema(t *testing.T) {
	data := []byte("Temp,Name,Kind,Flow,Pressure\n90,P1,Pump,10,2\n")
	sch, err := schema.Resolve([]string{"Temp", "Name", "Category", "Flow", "Pressure"})
	if err != nil {
		t.Fatal(err)
	}

	records, _, err := ParseCSV(data, *sch)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Type != "Pump" || records[0].Temperature.Or(0) != 90 {
		t.Errorf("records = %+v", records)
	}

	if _, _, err := ParseCSV(data, schema.Config{}); err == nil {
		t.Error("empty schema should be rejected")
	}
}

func TestParseCSVEmpty(t *testing.T) {
	if _, _, err := ParseCSVAuto(nil); !errors.Is(err, schema.ErrNoHeaders) {
		t.Errorf("expected ErrNoHeaders, got %v", err)
	}

	records, report, err := ParseCSVAuto([]byte("Equipment Name,Type,Flowrate,Pressure,Temperature\n"))
	if err != nil {
		t.Fatal(err)
	}
	if records == nil || len(records) != 0 || report.Rows != 0 {
		t.Errorf("header-only: records=%v report=%+v", records, report)
	}
}

func TestWriteRecordsCSVRoundTrip(t *testing.T) {
	records, _, err := ParseCSVAuto(uploadCSV)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteRecordsCSV(&buf, records); err != nil {
		t.Fatal(err)
	}

	back, report, err := ParseCSVAuto(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(records) || len(report.InvalidValues) != 0 {
		t.Fatalf("round trip: %d records, report %+v", len(back), report)
	}
	for i := range records {
		if back[i].Name != records[i].Name || back[i].Flowrate != records[i].Flowrate || back[i].Temperature != records[i].Temperature {
			t.Errorf("row %d: %+v != %+v", i, back[i], records[i])
		}
	}
}

func TestWriteTableCSV(t *testing.T) {
	records, _, _ := ParseCSVAuto(uploadCSV)
	table := engine.BuildTable(engine.ComputeView(records, engine.DefaultViewState()))

	var buf bytes.Buffer
	if err := WriteTableCSV(&buf, table); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Name,Type,Flowrate,Pressure (bar),Temp (°C)" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Compressor-1,Compressor,95.0,8.40,95.0" {
		t.Errorf("first row = %q", lines[1])
	}
	if len(lines) != 6 {
		t.Errorf("lines = %d", len(lines))
	}

	if err := WriteTableCSV(&buf, nil); err == nil {
		t.Error("nil table should error")
	}
}
