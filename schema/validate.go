package schema

import (
	"errors"
	"fmt"
)

// Validate checks a Config built by hand or loaded from JSON: every
// canonical column bound exactly once, at distinct non-negative indices.
func (c Config) Validate() error {
	var errs []error
	var missing []string

	seenKey := make(map[string]bool)
	seenIndex := make(map[int]string)

	for _, col := range c.Columns {
		if seenKey[col.Key] {
			errs = append(errs, fmt.Errorf("column %q bound twice", col.Key))
		}
		seenKey[col.Key] = true

		if col.Index < 0 {
			errs = append(errs, fmt.Errorf("column %q has negative index %d", col.Key, col.Index))
			continue
		}
		if other, ok := seenIndex[col.Index]; ok {
			errs = append(errs, fmt.Errorf("columns %q and %q share index %d", other, col.Key, col.Index))
		}
		seenIndex[col.Index] = col.Key
	}

	for _, canon := range CanonicalColumns {
		if !seenKey[canon.Key] {
			missing = append(missing, canon.Header)
		}
	}
	if len(missing) > 0 {
		errs = append([]error{&MissingColumnsError{Columns: missing}}, errs...)
	}
	return errors.Join(errs...)
}
