package engine

// ============================================================================
// CHART BUILDER — ChartConfig from summaries and ranked views
// ============================================================================
// Three charts back the dashboard:
//   pie  — type distribution (from SummaryStats)
//   bar  — top N records by a numeric field (TopN, shared comparator)
//   line — pressure and temperature across all records
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#6366F1", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#4F46E5",
}

// Charts bundles the dashboard charts. Any entry may be nil when there is
// nothing to plot.
type Charts struct {
	TypeDistribution *ChartConfig `json:"typeDistribution"`
	TopN             *ChartConfig `json:"topN"`
	Trend            *ChartConfig `json:"trend"`
}

// BuildCharts produces every dashboard chart for one record set.
func BuildCharts(view RecordView, summary SummaryStats, opts ...Option) *Charts {
	cfg := applyOptions(opts)
	return &Charts{
		TypeDistribution: BuildTypeDistributionChart(summary),
		TopN:             BuildTopNChart(view, cfg.TopNField, cfg.TopN),
		Trend:            BuildTrendChart(view),
	}
}

// BuildTypeDistributionChart returns a pie of the type distribution.
func BuildTypeDistributionChart(summary SummaryStats) *ChartConfig {
	counts := summary.TypeCounts()
	if len(counts) == 0 {
		return nil
	}

	points := make([]ChartPoint, 0, len(counts))
	for _, tc := range counts {
		points = append(points, ChartPoint{Label: tc.Type, Value: float64(tc.Count)})
	}

	return &ChartConfig{
		ChartType:  "pie",
		Title:      "Equipment Type Distribution",
		Series:     []ChartSeries{{Name: "Count", Data: points}},
		Colors:     assignColors(len(points)),
		ShowLegend: true,
		ShowGrid:   false,
	}
}

// BuildTopNChart returns a bar chart of the top n records by field.
// Records without a reading are left out.
func BuildTopNChart(view RecordView, field Field, n int) *ChartConfig {
	if !field.IsNumeric() {
		return nil
	}
	top := TopN(view, field, n)

	points := make([]ChartPoint, 0, top.Len())
	for i := 0; i < top.Len(); i++ {
		v, ok := top.Measure(i, field).Get()
		if !ok {
			continue
		}
		points = append(points, ChartPoint{Label: top.Text(i, FieldName), Value: RoundTo2(v)})
	}
	if len(points) == 0 {
		return nil
	}

	label := LabelForField(field)
	return &ChartConfig{
		ChartType: "bar",
		Title:     "Top " + FormatInt(len(points)) + " Equipment by " + LabelForField(field),
		XAxis:     "Equipment",
		YAxis:     label,
		Series:    []ChartSeries{{Name: label, Data: points, Color: defaultColors[0]}},
		Colors:    assignColors(1),
		ShowGrid:  true,
	}
}

// BuildTrendChart returns pressure and temperature across records in input
// order.
func BuildTrendChart(view RecordView) *ChartConfig {
	if view.Len() == 0 {
		return nil
	}

	fields := []Field{FieldPressure, FieldTemperature}
	series := make([]ChartSeries, 0, len(fields))
	for si, f := range fields {
		points := make([]ChartPoint, 0, view.Len())
		for i := 0; i < view.Len(); i++ {
			p := ChartPoint{Label: view.Text(i, FieldName)}
			if v, ok := view.Measure(i, f).Get(); ok {
				p.Value = RoundTo2(v)
			} else {
				p.Missing = true
			}
			points = append(points, p)
		}
		series = append(series, ChartSeries{
			Name:  LabelForField(f),
			Data:  points,
			Color: defaultColors[(si+1)%len(defaultColors)],
		})
	}

	return &ChartConfig{
		ChartType:  "line",
		Title:      "Pressure vs Temperature Comparison",
		XAxis:      "Equipment",
		Series:     series,
		Colors:     []string{series[0].Color, series[1].Color},
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
