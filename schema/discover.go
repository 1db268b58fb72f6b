package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY — Resolve headers and profile sampled values
// ============================================================================
// Reads the header row, binds the canonical columns (Resolve), then samples
// data rows to report per column:
//   1. empty/null cell count
//   2. non-numeric values in numeric columns (these load as "no data")
//   3. sample values and a cardinality hint for text columns
//
// Discovery never rejects data rows. It exists so an operator can see what
// an upload will turn into before sending it.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 1000
	Name       string // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV resolves the equipment columns of CSV data and profiles
// up to SampleSize rows.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	// 1. Read headers
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeaders
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	config, err := Resolve(headers)
	if err != nil {
		return nil, err
	}

	// 2. Read sample rows
	var rows [][]string
	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}

	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue // skip malformed rows
			}
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, row)
	}

	// 3. Analyze each bound column
	for i := range config.Columns {
		analyzeColumn(&config.Columns[i], rows)
	}

	if opt.Name != "" {
		config.Name = opt.Name
	}
	config.SampledRows = len(rows)
	config.DiscoveredFrom = "CSV"
	config.DiscoveredAt = time.Now().Format(time.RFC3339)
	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

// analyzeColumn fills the profiling fields of col from rows.
func analyzeColumn(col *ColumnMeta, rows [][]string) {
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if col.Index >= len(row) || IsNull(row[col.Index]) {
			col.EmptyCount++
			continue
		}
		val := strings.TrimSpace(row[col.Index])
		if col.Numeric {
			if _, ok := ParseNumber(val); !ok {
				col.InvalidCount++
				continue
			}
		}
		uniqueSet[val] = true
	}

	col.SampleValues = collectSamples(uniqueSet, 10)

	switch n := len(uniqueSet); {
	case n == 0:
		col.CardinalityHint = ""
	case n <= 10:
		col.CardinalityHint = "low"
	case n <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
}

// ============================================================================
// VALUE PARSING
// ============================================================================

var nullTokens = map[string]bool{
	"": true, "null": true, "none": true, "n/a": true, "na": true, "nan": true, "-": true,
}

// IsNull reports whether a raw cell means "no value".
func IsNull(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber parses a numeric cell. Thousands separators are accepted.
// NaN and ±Inf are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return s
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
