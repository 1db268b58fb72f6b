package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// ============================================================================
// EQUIPDASH CLI — Chemical equipment dashboard from the terminal
// ============================================================================

const version = "0.3.0"

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"view", "Search, sort and page the equipment table", runView},
	{"summary", "Summary statistics and type distribution", runSummary},
	{"charts", "Type distribution, top-N and trend chart data", runCharts},
	{"export", "Filtered and sorted records as CSV", runExport},
	{"discover", "Resolve and profile the columns of a CSV file", runDiscover},
	{"upload", "Upload a CSV file to a running server", runUpload},
	{"history", "List recent uploads on a running server", runHistory},
	{"serve", "Run the dashboard HTTP API", runServe},
	{"version", "Print version and exit", func([]string) error {
		fmt.Printf("equipdash %s\n", version)
		return nil
	}},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	if args[0] == "--version" {
		args[0] = "version"
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:])
		}
	}
	printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `equipdash — chemical equipment dashboard

Usage:
  equipdash <command> [flags]

Commands:
`)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(os.Stderr, `
Data source (view, summary, charts, export):
  --file data.csv          Read a local CSV file
  --server URL             Read from a running API (e.g. http://localhost:8080/api/v1)
  --upload-id ID           Pick an upload on the server (default: newest)

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Terminal tables
  csv       Table or chart data as CSV (ready for Sheets/Excel)

Environment:
  EQUIPDASH_*              Overrides for any config key (see config package)

Examples:
  # Page 2 of pumps, sorted by flowrate descending
  equipdash view --file plant.csv --search pump --sort flowrate --direction desc --page 2 --format text

  # Summary cards from the newest upload on a server
  equipdash summary --server http://localhost:8080/api/v1 --format text

  # Top 5 by pressure as CSV
  equipdash charts --file plant.csv --top-n 5 --top-n-field pressure --format csv --out top.csv

  # Serve with a config file
  equipdash serve --config equipdash.yaml
`)
}
