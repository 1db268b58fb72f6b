package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/schema"
	"github.com/spektr-org/equipdash/store"
)

// ============================================================================
// TEXT OUTPUT — lipgloss tables for the terminal
// ============================================================================

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
)

// newTable returns a bordered table; columns listed in numeric are right-aligned.
func newTable(headers []string, rows [][]string, numeric map[int]bool) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if numeric[col] {
				return numberStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
}

func writeTableText(w io.Writer, t *engine.TableData) error {
	headers := make([]string, len(t.Columns))
	numeric := map[int]bool{}
	for i, c := range t.Columns {
		headers[i] = c.Label
		numeric[i] = c.Type == "number"
	}
	fmt.Fprintln(w, titleStyle.Render(t.Title))
	fmt.Fprintln(w, newTable(headers, t.Rows, numeric).Render())

	footer := ""
	if t.Summary != nil {
		footer = t.Summary.Label
	}
	if t.Pagination != nil {
		footer += fmt.Sprintf("  (page %d of %d)", t.Pagination.CurrentPage, t.Pagination.TotalPages)
	}
	_, err := fmt.Fprintln(w, mutedStyle.Render(footer))
	return err
}

func writeCardsText(w io.Writer, cards *engine.SummaryCards) error {
	if cards.Empty {
		fmt.Fprintln(w, mutedStyle.Render("No equipment data"))
	}

	stats := make([][]string, len(cards.Stats))
	for i, s := range cards.Stats {
		stats[i] = []string{s.Label, s.Value}
	}
	fmt.Fprintln(w, titleStyle.Render("Summary"))
	fmt.Fprintln(w, newTable([]string{"Metric", "Value"}, stats, map[int]bool{1: true}).Render())

	ranges := make([][]string, len(cards.Ranges))
	for i, r := range cards.Ranges {
		ranges[i] = []string{r.Label, r.Min, r.Max}
	}
	fmt.Fprintln(w, titleStyle.Render("Ranges"))
	fmt.Fprintln(w, newTable([]string{"Field", "Min", "Max"}, ranges, map[int]bool{1: true, 2: true}).Render())

	types := make([][]string, len(cards.Types))
	for i, t := range cards.Types {
		types[i] = []string{t.Type, engine.FormatInt(t.Count)}
	}
	fmt.Fprintln(w, titleStyle.Render("Types"))
	_, err := fmt.Fprintln(w, newTable([]string{"Type", "Count"}, types, map[int]bool{1: true}).Render())
	return err
}

func writeChartText(w io.Writer, c *engine.ChartConfig) error {
	if c == nil {
		return nil
	}
	fmt.Fprintln(w, titleStyle.Render(c.Title))

	headers := []string{"Label"}
	numeric := map[int]bool{}
	for i, s := range c.Series {
		headers = append(headers, s.Name)
		numeric[i+1] = true
	}
	rows := chartRows(c, "-")
	_, err := fmt.Fprintln(w, newTable(headers, rows, numeric).Render())
	return err
}

func writeSchemaText(w io.Writer, sch *schema.Config) error {
	fmt.Fprintln(w, titleStyle.Render(sch.Name))

	rows := make([][]string, len(sch.Columns))
	for i, c := range sch.Columns {
		rows[i] = []string{
			c.Header, c.Key, strconv.Itoa(c.Index), c.Unit,
			strconv.Itoa(c.EmptyCount), strconv.Itoa(c.InvalidCount), c.CardinalityHint,
		}
	}
	headers := []string{"Header", "Key", "Index", "Unit", "Empty", "Invalid", "Cardinality"}
	fmt.Fprintln(w, newTable(headers, rows, map[int]bool{2: true, 4: true, 5: true}).Render())

	for _, s := range sch.SkippedColumns {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("skipped %q: %s", s.Column, s.Reason)))
	}
	return nil
}

func writeHistoryText(w io.Writer, uploads []store.Upload) error {
	rows := make([][]string, len(uploads))
	for i, u := range uploads {
		rows[i] = []string{u.ID, u.Filename, u.UploadedAt.Format("2006-01-02 15:04:05"), engine.FormatInt(u.RecordCount)}
	}
	_, err := fmt.Fprintln(w, newTable([]string{"ID", "File", "Uploaded", "Records"}, rows, map[int]bool{3: true}).Render())
	return err
}

// ============================================================================
// CSV OUTPUT
// ============================================================================

func writeSummaryCSV(w io.Writer, s engine.SummaryStats) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Metric", "Value"})
	cw.Write([]string{"total_count", strconv.Itoa(s.TotalCount)})
	for _, f := range []engine.Field{engine.FieldFlowrate, engine.FieldPressure, engine.FieldTemperature} {
		fs := s.Field(f)
		cw.Write([]string{"avg_" + string(f), fmtMeasurement(fs.Avg)})
		cw.Write([]string{"min_" + string(f), fmtMeasurement(fs.Min)})
		cw.Write([]string{"max_" + string(f), fmtMeasurement(fs.Max)})
	}
	for _, tc := range s.TypeCounts() {
		cw.Write([]string{"type:" + tc.Type, strconv.Itoa(tc.Count)})
	}
	cw.Flush()
	return cw.Error()
}

// writeChartCSV writes one row per label with a column per series.
func writeChartCSV(w io.Writer, c *engine.ChartConfig) error {
	cw := csv.NewWriter(w)
	if c == nil || len(c.Series) == 0 {
		cw.Write([]string{"Result", "No data"})
		cw.Flush()
		return cw.Error()
	}

	xLabel := c.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	headers := []string{xLabel}
	for _, s := range c.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)
	for _, row := range chartRows(c, "") {
		cw.Write(row)
	}
	cw.Flush()
	return cw.Error()
}

// chartRows lays series out side by side, keyed by the first series' labels.
// Missing points render as missing.
func chartRows(c *engine.ChartConfig, missing string) [][]string {
	if len(c.Series) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(c.Series[0].Data))
	for i, d := range c.Series[0].Data {
		row := []string{d.Label}
		for _, s := range c.Series {
			if i < len(s.Data) && !s.Data[i].Missing {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, missing)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func fmtMeasurement(m engine.Measurement) string {
	if v, ok := m.Get(); ok {
		return fmtNum(v)
	}
	return ""
}

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
