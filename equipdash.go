// Package equipdash is a dashboard core for chemical-equipment readings.
//
// Usage:
//
//	import "github.com/spektr-org/equipdash/engine"
//
//	view := engine.ComputeView(records, engine.DefaultViewState())
//	summary := engine.ComputeSummary(records)
//	charts := engine.BuildCharts(engine.NewSliceView(records), summary,
//	    engine.WithTopN(5),
//	)
//
// The engine filters, sorts and pages equipment records and rolls them up
// into summary statistics and chart data. It is pure and never fails.
//
// Around it: schema resolves CSV headers, helpers parses and writes CSV,
// store keeps upload history (memory, Redis or Postgres), archive keeps the
// raw files in S3-compatible storage, service ties them together, server
// exposes them over HTTP and client consumes that API.
package equipdash
