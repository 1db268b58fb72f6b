package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Summary Statistics and Type Distribution via RecordView
// ============================================================================
// Absent readings are excluded from numerator, denominator and extrema.
// A field with no readings reports absent avg/min/max, never 0.
// The server summary endpoint and any client-side recomputation both call
// ComputeSummary, so the numbers always agree.
// ============================================================================

// ComputeSummary reduces records to SummaryStats.
func ComputeSummary(records []EquipmentRecord, opts ...Option) SummaryStats {
	return SummarizeView(NewSliceView(records), opts...)
}

// SummarizeView is ComputeSummary over any RecordView.
func SummarizeView(view RecordView, opts ...Option) SummaryStats {
	cfg := applyOptions(opts)

	stats := SummaryStats{
		TotalCount:       view.Len(),
		TypeDistribution: make(map[string]int),
	}
	if view.Len() == 0 {
		return stats
	}

	for _, f := range NumericFields {
		stats.setField(f, MeasureStats(view, f))
	}

	stats.TypeDistribution = typeDistribution(view, cfg.FoldTypeCase)
	return stats
}

// MeasureStats computes mean and extrema of one numeric field.
func MeasureStats(view RecordView, field Field) FieldStats {
	var (
		sum    float64
		count  int
		lo, hi float64
	)
	for i := 0; i < view.Len(); i++ {
		v, ok := view.Measure(i, field).Get()
		if !ok {
			continue
		}
		if count == 0 || v < lo {
			lo = v
		}
		if count == 0 || v > hi {
			hi = v
		}
		sum += v
		count++
	}
	if count == 0 {
		return FieldStats{}
	}
	return FieldStats{
		Avg: Some(sum / float64(count)),
		Min: Some(lo),
		Max: Some(hi),
	}
}

// ============================================================================
// TYPE DISTRIBUTION
// ============================================================================

func typeDistribution(view RecordView, fold bool) map[string]int {
	dist := make(map[string]int)
	if !fold {
		for i := 0; i < view.Len(); i++ {
			dist[view.Text(i, FieldType)]++
		}
		return dist
	}

	// first spelling seen names the bucket
	labels := make(map[string]string)
	for i := 0; i < view.Len(); i++ {
		t := view.Text(i, FieldType)
		key := strings.ToLower(t)
		label, ok := labels[key]
		if !ok {
			label = t
			labels[key] = t
		}
		dist[label]++
	}
	return dist
}

// TypeCounts returns the distribution ordered by count desc, then label asc.
func (s SummaryStats) TypeCounts() []TypeCount {
	out := make([]TypeCount, 0, len(s.TypeDistribution))
	for t, c := range s.TypeDistribution {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForField returns a display label for a field.
func LabelForField(f Field) string {
	switch f {
	case FieldPressure:
		return "Pressure (bar)"
	case FieldTemperature:
		return "Temperature (°C)"
	}
	if len(f) == 0 {
		return ""
	}
	return strings.ToUpper(string(f[:1])) + string(f[1:])
}
