package engine

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// ============================================================================
// EQUIPDASH ENGINE TYPES — Equipment Records, View State, Summaries
// ============================================================================
// Records arrive from the upload/fetch layer fully parsed. The engine only
// reads them; every derived structure here is rebuilt from scratch on each
// call.
//
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// ============================================================================
// FIELDS
// ============================================================================

// Field names a sortable/searchable column of an EquipmentRecord.
type Field string

const (
	FieldName        Field = "name"
	FieldType        Field = "type"
	FieldFlowrate    Field = "flowrate"
	FieldPressure    Field = "pressure"
	FieldTemperature Field = "temperature"
)

// Fields lists every field in display order.
var Fields = []Field{FieldName, FieldType, FieldFlowrate, FieldPressure, FieldTemperature}

// NumericFields lists the measured fields.
var NumericFields = []Field{FieldFlowrate, FieldPressure, FieldTemperature}

// ParseField resolves a field name case-insensitively.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if f.Valid() {
		return f, true
	}
	return "", false
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldName, FieldType, FieldFlowrate, FieldPressure, FieldTemperature:
		return true
	}
	return false
}

// IsNumeric reports whether f holds a Measurement.
func (f Field) IsNumeric() bool {
	return f == FieldFlowrate || f == FieldPressure || f == FieldTemperature
}

// ============================================================================
// MEASUREMENT — tagged optional float
// ============================================================================

// Measurement is a numeric reading that may be absent.
// Absent is the "no data" marker: it is never conflated with 0.
type Measurement struct {
	Value float64
	Valid bool
}

// Some wraps a reading. NaN and ±Inf are not readings and yield None.
func Some(v float64) Measurement {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measurement{}
	}
	return Measurement{Value: v, Valid: true}
}

// None returns an absent measurement.
func None() Measurement { return Measurement{} }

// Present reports whether m holds a real reading. A hand-built
// Measurement{Valid: true} carrying NaN or ±Inf is still absent.
func (m Measurement) Present() bool {
	return m.Valid && !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0)
}

// Get returns the value and whether it is present.
func (m Measurement) Get() (float64, bool) { return m.Value, m.Present() }

// Or returns the value, or fallback when absent.
func (m Measurement) Or(fallback float64) float64 {
	if !m.Present() {
		return fallback
	}
	return m.Value
}

// MarshalJSON encodes absent measurements as null.
func (m Measurement) MarshalJSON() ([]byte, error) {
	if !m.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts null or a number.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Measurement{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}

// ============================================================================
// RECORD
// ============================================================================

// EquipmentRecord is one row of uploaded equipment data.
type EquipmentRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Flowrate    Measurement `json:"flowrate"`
	Pressure    Measurement `json:"pressure"`
	Temperature Measurement `json:"temperature"`
}

// Text returns the string value of a text field ("" for numeric fields).
func (r EquipmentRecord) Text(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldType:
		return r.Type
	}
	return ""
}

// Measure returns the reading for a numeric field (absent for text fields).
func (r EquipmentRecord) Measure(f Field) Measurement {
	switch f {
	case FieldFlowrate:
		return r.Flowrate
	case FieldPressure:
		return r.Pressure
	case FieldTemperature:
		return r.Temperature
	}
	return Measurement{}
}

// ============================================================================
// VIEW STATE
// ============================================================================

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseDirection resolves "asc"/"desc" case-insensitively.
func ParseDirection(s string) (SortDirection, bool) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case Ascending:
		return Ascending, true
	case Descending:
		return Descending, true
	}
	return "", false
}

// DefaultItemsPerPage is the table page size.
const DefaultItemsPerPage = 10

// ViewState holds the table controls. The caller owns it; Reduce evolves it.
type ViewState struct {
	SearchTerm    string        `json:"searchTerm"`
	SortField     Field         `json:"sortField"`
	SortDirection SortDirection `json:"sortDirection"`
	CurrentPage   int           `json:"currentPage"`
	ItemsPerPage  int           `json:"itemsPerPage"`
}

// DefaultViewState returns the initial table controls.
func DefaultViewState() ViewState {
	return ViewState{
		SortField:     FieldName,
		SortDirection: Ascending,
		CurrentPage:   1,
		ItemsPerPage:  DefaultItemsPerPage,
	}
}

// normalized fills zero values with defaults without touching the page.
func (s ViewState) normalized() ViewState {
	if !s.SortField.Valid() {
		s.SortField = FieldName
	}
	if s.SortDirection != Descending {
		s.SortDirection = Ascending
	}
	if s.ItemsPerPage <= 0 {
		s.ItemsPerPage = DefaultItemsPerPage
	}
	return s
}

// ============================================================================
// VIEW RESULT
// ============================================================================

// ViewResult is the visible page plus pagination metadata.
type ViewResult struct {
	Rows         []EquipmentRecord `json:"rows"`
	TotalPages   int               `json:"totalPages"`
	StartIndex   int               `json:"startIndex"`
	EndIndex     int               `json:"endIndex"`
	TotalMatched int               `json:"totalMatched"`
	State        ViewState         `json:"state"`
}

// ============================================================================
// SUMMARY
// ============================================================================

// SummaryStats is the aggregate rollup of a record set.
// Field names match the dashboard API's JSON.
type SummaryStats struct {
	TotalCount       int            `json:"total_count"`
	AvgFlowrate      Measurement    `json:"avg_flowrate"`
	AvgPressure      Measurement    `json:"avg_pressure"`
	AvgTemperature   Measurement    `json:"avg_temperature"`
	MinFlowrate      Measurement    `json:"min_flowrate"`
	MaxFlowrate      Measurement    `json:"max_flowrate"`
	MinPressure      Measurement    `json:"min_pressure"`
	MaxPressure      Measurement    `json:"max_pressure"`
	MinTemperature   Measurement    `json:"min_temperature"`
	MaxTemperature   Measurement    `json:"max_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// FieldStats groups the mean and extrema of one numeric field.
type FieldStats struct {
	Avg Measurement `json:"avg"`
	Min Measurement `json:"min"`
	Max Measurement `json:"max"`
}

// Field returns the stats of a numeric field.
func (s SummaryStats) Field(f Field) FieldStats {
	switch f {
	case FieldFlowrate:
		return FieldStats{Avg: s.AvgFlowrate, Min: s.MinFlowrate, Max: s.MaxFlowrate}
	case FieldPressure:
		return FieldStats{Avg: s.AvgPressure, Min: s.MinPressure, Max: s.MaxPressure}
	case FieldTemperature:
		return FieldStats{Avg: s.AvgTemperature, Min: s.MinTemperature, Max: s.MaxTemperature}
	}
	return FieldStats{}
}

func (s *SummaryStats) setField(f Field, fs FieldStats) {
	switch f {
	case FieldFlowrate:
		s.AvgFlowrate, s.MinFlowrate, s.MaxFlowrate = fs.Avg, fs.Min, fs.Max
	case FieldPressure:
		s.AvgPressure, s.MinPressure, s.MaxPressure = fs.Avg, fs.Min, fs.Max
	case FieldTemperature:
		s.AvgTemperature, s.MinTemperature, s.MaxTemperature = fs.Avg, fs.Min, fs.Max
	}
}

// TypeCount is one bucket of the type distribution.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
// Missing marks a label with no reading; Value is 0 in that case.
type ChartPoint struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table page.
type TableData struct {
	Title      string      `json:"title"`
	Columns    []Column    `json:"columns"`
	Rows       [][]string  `json:"rows"`
	RowKeys    []string    `json:"rowKeys"`
	Summary    *Summary    `json:"summary,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides the footer label for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values,omitempty"`
}

// Pagination describes page controls for the rendered table.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasPrev     bool `json:"hasPrev"`
	HasNext     bool `json:"hasNext"`
}
