package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// RESOLVE — Header row → Config
// ============================================================================
// Every canonical column must be present. The first header matching a
// canonical column wins; later duplicates and unrelated headers are kept as
// SkippedColumns so callers can report them.
// ============================================================================

// ErrNoHeaders is returned for an empty header row.
var ErrNoHeaders = errors.New("CSV has no columns")

// MissingColumnsError lists canonical headers absent from an upload.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing columns: " + strings.Join(e.Columns, ", ")
}

// Resolve maps a header row onto the canonical columns.
func Resolve(headers []string) (*Config, error) {
	if len(headers) == 0 {
		return nil, ErrNoHeaders
	}

	config := &Config{Name: "Equipment Upload"}
	bound := make(map[string]bool)

	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		c, ok := matchCanonical(h)
		switch {
		case !ok:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column: h,
				Reason: "Not an equipment column",
			})
		case bound[c.Key]:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column: h,
				Reason: fmt.Sprintf("Duplicate of %q", c.Header),
			})
		default:
			bound[c.Key] = true
			config.Columns = append(config.Columns, ColumnMeta{
				Key:         c.Key,
				Header:      h,
				DisplayName: c.Header,
				Index:       i,
				Numeric:     c.Numeric,
				Unit:        c.Unit,
			})
		}
	}

	var missing []string
	for _, c := range CanonicalColumns {
		if !bound[c.Key] {
			missing = append(missing, c.Header)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	config.sortColumns()
	return config, nil
}

// sortColumns puts Columns in canonical order.
func (c *Config) sortColumns() {
	ordered := make([]ColumnMeta, 0, len(c.Columns))
	for _, canon := range CanonicalColumns {
		if col, ok := c.Column(canon.Key); ok {
			ordered = append(ordered, col)
		}
	}
	c.Columns = ordered
}
