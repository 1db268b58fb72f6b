package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for summaries, tables and charts
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	FoldTypeCase bool   // merge type buckets differing only in case
	Placeholder  string // cell text for absent readings
	TopN         int    // bars in the ranked chart
	TopNField    Field  // field the ranked chart sorts by
}

// WithTypeFolding groups type_distribution buckets case-insensitively,
// keyed by the first spelling seen. Off by default: upstream data is
// expected to be normalized already.
func WithTypeFolding() Option {
	return func(c *config) {
		c.FoldTypeCase = true
	}
}

// WithPlaceholder sets the table cell text used for absent readings.
func WithPlaceholder(s string) Option {
	return func(c *config) {
		c.Placeholder = s
	}
}

// WithTopN sets how many records the ranked chart shows.
func WithTopN(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithTopNField sets the numeric field the ranked chart sorts by.
func WithTopNField(f Field) Option {
	return func(c *config) {
		if f.IsNumeric() {
			c.TopNField = f
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Placeholder: "-",
		TopN:        10,
		TopNField:   FieldFlowrate,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
