package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/schema"
)

// ============================================================================
// CSV EXPORT — records or a rendered table page back to CSV
// ============================================================================

// WriteRecordsCSV writes records with the canonical header row. Absent
// readings are written as empty cells so the file parses back unchanged.
func WriteRecordsCSV(w io.Writer, records []engine.EquipmentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.RequiredHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.Type,
			formatCell(r.Flowrate),
			formatCell(r.Pressure),
			formatCell(r.Temperature),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes a rendered table page using its column labels.
func WriteTableCSV(w io.Writer, table *engine.TableData) error {
	if table == nil {
		return fmt.Errorf("nil table")
	}
	cw := csv.NewWriter(w)

	header := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func formatCell(m engine.Measurement) string {
	v, ok := m.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
