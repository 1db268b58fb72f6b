package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into []engine.EquipmentRecord
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, upload, bucket).
// This helper converts the raw bytes into records using a resolved schema.
//
// Row rules:
//   blank name or type   → row dropped (reported)
//   blank numeric cell   → absent reading
//   non-numeric value    → absent reading (reported)
//   short row            → missing cells treated as blank
// Record IDs are the 1-based data row number, so they stay stable across
// re-parses of the same file.
// ============================================================================

// DroppedRow explains why a data row produced no record.
type DroppedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// InvalidValue is a numeric cell that could not be parsed.
type InvalidValue struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// ParseReport summarises one parse.
type ParseReport struct {
	Rows          int            `json:"rows"`
	Accepted      int            `json:"accepted"`
	Dropped       []DroppedRow   `json:"dropped,omitempty"`
	InvalidValues []InvalidValue `json:"invalidValues,omitempty"`
}

// ParseOptions tunes row handling.
type ParseOptions struct {
	// DropIncomplete drops rows with any absent reading instead of keeping
	// them with "no data" cells.
	DropIncomplete bool
}

// ParseCSV parses CSV bytes into records using sch for column positions.
func ParseCSV(data []byte, sch schema.Config, opts ...ParseOptions) ([]engine.EquipmentRecord, *ParseReport, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	if err := sch.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid schema: %w", err)
	}

	reader := newReader(data)

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil, schema.ErrNoHeaders
		}
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	return readRecords(reader, sch, opt)
}

// ParseCSVAuto resolves the header row and parses the data in one step.
// A header row missing required columns yields *schema.MissingColumnsError.
func ParseCSVAuto(data []byte, opts ...ParseOptions) ([]engine.EquipmentRecord, *ParseReport, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := newReader(data)

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, schema.ErrNoHeaders
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	sch, err := schema.Resolve(headers)
	if err != nil {
		return nil, nil, err
	}

	return readRecords(reader, *sch, opt)
}

// ParseCSVView parses CSV into a RecordView (convenience wrapper).
func ParseCSVView(data []byte) (engine.RecordView, *ParseReport, error) {
	records, report, err := ParseCSVAuto(data)
	if err != nil {
		return nil, nil, err
	}
	return engine.NewSliceView(records), report, nil
}

func newReader(data []byte) *csv.Reader {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func readRecords(reader *csv.Reader, sch schema.Config, opt ParseOptions) ([]engine.EquipmentRecord, *ParseReport, error) {
	report := &ParseReport{}
	records := make([]engine.EquipmentRecord, 0)

	cols := make(map[string]schema.ColumnMeta, len(sch.Columns))
	for _, c := range sch.Columns {
		cols[c.Key] = c
	}

	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, nil, fmt.Errorf("failed to read CSV row %d: %w", rowNum, err)
			}
			report.Rows++
			report.Dropped = append(report.Dropped, DroppedRow{Row: rowNum, Reason: "malformed row: " + perr.Err.Error()})
			continue
		}
		if isBlankRow(row) {
			rowNum--
			continue
		}
		report.Rows++

		cell := func(key string) string {
			idx := cols[key].Index
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := engine.EquipmentRecord{
			ID:   strconv.Itoa(rowNum),
			Name: cell(schema.KeyName),
			Type: cell(schema.KeyType),
		}
		if rec.Name == "" || rec.Type == "" {
			report.Dropped = append(report.Dropped, DroppedRow{Row: rowNum, Reason: "missing equipment name or type"})
			continue
		}

		complete := true
		for _, f := range engine.NumericFields {
			key := string(f)
			raw := cell(key)
			m := engine.None()
			if !schema.IsNull(raw) {
				if v, ok := schema.ParseNumber(raw); ok {
					m = engine.Some(v)
				} else {
					report.InvalidValues = append(report.InvalidValues, InvalidValue{Row: rowNum, Column: cols[key].DisplayName, Value: raw})
				}
			}
			if !m.Present() {
				complete = false
			}
			setMeasure(&rec, f, m)
		}

		if opt.DropIncomplete && !complete {
			report.Dropped = append(report.Dropped, DroppedRow{Row: rowNum, Reason: "missing reading"})
			continue
		}

		records = append(records, rec)
	}

	report.Accepted = len(records)
	return records, report, nil
}

func setMeasure(r *engine.EquipmentRecord, f engine.Field, m engine.Measurement) {
	switch f {
	case engine.FieldFlowrate:
		r.Flowrate = m
	case engine.FieldPressure:
		r.Pressure = m
	case engine.FieldTemperature:
		r.Temperature = m
	}
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
