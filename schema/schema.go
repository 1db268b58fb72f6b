package schema

import (
	"strings"
)

// ============================================================================
// SCHEMA — Describes where the equipment columns live in an upload
// ============================================================================
// Built by Resolve from a CSV header row, or by DiscoverFromCSV which also
// profiles the sampled values. The CSV helper uses the resolved column
// indices to build records; the CLI prints the discovered Config.
// ============================================================================

// Column keys. They match the engine field names.
const (
	KeyName        = "name"
	KeyType        = "type"
	KeyFlowrate    = "flowrate"
	KeyPressure    = "pressure"
	KeyTemperature = "temperature"
)

// Config describes the complete shape of an equipment upload.
type Config struct {
	Name    string       `json:"name"`
	Columns []ColumnMeta `json:"columns"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`
	SampledRows    int    `json:"sampledRows,omitempty"`

	// Columns present in the upload but not used
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty"`
}

// ColumnMeta binds one canonical column to its position in the header row.
type ColumnMeta struct {
	Key         string `json:"key"`
	Header      string `json:"header"`      // header as written in the upload
	DisplayName string `json:"displayName"` // canonical header
	Index       int    `json:"index"`
	Numeric     bool   `json:"numeric"`
	Unit        string `json:"unit,omitempty"`

	// Filled by DiscoverFromCSV
	SampleValues    []string `json:"sampleValues,omitempty"`
	EmptyCount      int      `json:"emptyCount,omitempty"`
	InvalidCount    int      `json:"invalidCount,omitempty"` // non-numeric values in a numeric column
	CardinalityHint string   `json:"cardinalityHint,omitempty"`
}

// SkippedColumn records why a header was not mapped.
type SkippedColumn struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// ============================================================================
// CANONICAL COLUMNS
// ============================================================================

// Canonical describes one required column and the header spellings accepted
// for it (compared after snake_case normalisation).
type Canonical struct {
	Key     string
	Header  string
	Numeric bool
	Unit    string
	Aliases []string
}

// CanonicalColumns lists the required columns in upload order.
var CanonicalColumns = []Canonical{
	{Key: KeyName, Header: "Equipment Name", Aliases: []string{"equipment_name", "name", "equipment", "equipment_id"}},
	{Key: KeyType, Header: "Type", Aliases: []string{"type", "equipment_type", "category"}},
	{Key: KeyFlowrate, Header: "Flowrate", Numeric: true, Aliases: []string{"flowrate", "flow_rate", "flow"}},
	{Key: KeyPressure, Header: "Pressure", Numeric: true, Unit: "bar", Aliases: []string{"pressure", "pressure_bar", "pressure_(bar)"}},
	{Key: KeyTemperature, Header: "Temperature", Numeric: true, Unit: "°C", Aliases: []string{"temperature", "temp", "temperature_c", "temperature_(°c)", "temp_(°c)"}},
}

// RequiredHeaders returns the canonical header names.
func RequiredHeaders() []string {
	out := make([]string, len(CanonicalColumns))
	for i, c := range CanonicalColumns {
		out[i] = c.Header
	}
	return out
}

// matchCanonical finds the canonical column a raw header refers to.
func matchCanonical(header string) (Canonical, bool) {
	key := toSnakeCase(strings.TrimSpace(header))
	for _, c := range CanonicalColumns {
		for _, alias := range c.Aliases {
			if key == alias {
				return c, true
			}
		}
	}
	return Canonical{}, false
}

// ============================================================================
// ACCESSORS
// ============================================================================

// Column returns the column bound to key.
func (c Config) Column(key string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// IndexOf returns the header index of key, or -1.
func (c Config) IndexOf(key string) int {
	if col, ok := c.Column(key); ok {
		return col.Index
	}
	return -1
}

// ColumnKeys returns all resolved column keys.
func (c Config) ColumnKeys() []string {
	keys := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		keys[i] = col.Key
	}
	return keys
}

// SkippedNames returns the raw headers of skipped columns.
func (c Config) SkippedNames() []string {
	names := make([]string, len(c.SkippedColumns))
	for i, s := range c.SkippedColumns {
		names[i] = s.Column
	}
	return names
}
