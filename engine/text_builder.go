package engine

import (
	"fmt"
)

// ============================================================================
// TEXT BUILDER — Stat cards and range cards for the summary view
// ============================================================================

// NoData is the display text for an absent statistic.
const NoData = "No data"

// StatCard is a single headline figure.
type StatCard struct {
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
	HasValue bool    `json:"hasValue"`
}

// RangeCard shows min → max of one field.
type RangeCard struct {
	Label string `json:"label"`
	Field Field  `json:"field"`
	Min   string `json:"min"`
	Max   string `json:"max"`
}

// SummaryCards is the render-ready summary view.
type SummaryCards struct {
	Empty  bool        `json:"empty"`
	Stats  []StatCard  `json:"stats"`
	Ranges []RangeCard `json:"ranges"`
	Types  []TypeCount `json:"types"`
}

// BuildSummaryCards formats SummaryStats for display.
func BuildSummaryCards(summary SummaryStats) *SummaryCards {
	cards := &SummaryCards{
		Empty: summary.TotalCount == 0,
		Stats: []StatCard{{
			Label:    "Total Equipment",
			Value:    FormatInt(summary.TotalCount),
			RawValue: float64(summary.TotalCount),
			HasValue: true,
		}},
		Types: summary.TypeCounts(),
	}

	cards.Stats = append(cards.Stats,
		statCard("Avg Flowrate", summary.AvgFlowrate, "%.2f"),
		statCard("Avg Pressure", summary.AvgPressure, "%.2f bar"),
		statCard("Avg Temperature", summary.AvgTemperature, "%.1f°C"),
	)

	cards.Ranges = []RangeCard{
		rangeCard("Flowrate Range", FieldFlowrate, summary.Field(FieldFlowrate), "%.1f"),
		rangeCard("Pressure Range", FieldPressure, summary.Field(FieldPressure), "%.2f bar"),
		rangeCard("Temperature Range", FieldTemperature, summary.Field(FieldTemperature), "%.1f°C"),
	}
	return cards
}

func statCard(label string, m Measurement, format string) StatCard {
	return StatCard{
		Label:    label,
		Value:    formatStat(m, format),
		RawValue: m.Or(0),
		HasValue: m.Present(),
	}
}

func rangeCard(label string, field Field, fs FieldStats, format string) RangeCard {
	return RangeCard{
		Label: label,
		Field: field,
		Min:   formatStat(fs.Min, format),
		Max:   formatStat(fs.Max, format),
	}
}

func formatStat(m Measurement, format string) string {
	v, ok := m.Get()
	if !ok {
		return NoData
	}
	return fmt.Sprintf(format, v)
}
