package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spektr-org/equipdash/client"
	"github.com/spektr-org/equipdash/config"
	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/helpers"
	"github.com/spektr-org/equipdash/schema"
)

// ============================================================================
// SHARED FLAGS
// ============================================================================

type commonFlags struct {
	configPath string
	envFile    string
	format     string
	outFile    string
}

func (f *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&f.envFile, "env-file", "", "Path to .env file (default: .env)")
	fs.StringVarP(&f.format, "format", "f", "json", "Output format: json, pretty, text, csv")
	fs.StringVarP(&f.outFile, "out", "o", "", "Write output to file instead of stdout")
}

func (f *commonFlags) loadConfig() (*config.Config, error) {
	return config.Load(f.configPath, f.envFile)
}

func (f *commonFlags) checkFormat(allowed ...string) error {
	for _, a := range allowed {
		if f.format == a {
			return nil
		}
	}
	return fmt.Errorf("--format must be one of %s, got %q", strings.Join(allowed, ", "), f.format)
}

type sourceFlags struct {
	file     string
	server   string
	uploadID string
}

func (s *sourceFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&s.file, "file", "", "Path to CSV data file")
	fs.StringVar(&s.server, "server", "", "Dashboard API base URL")
	fs.StringVar(&s.uploadID, "upload-id", "", "Upload to read from --server (default: newest)")
}

// load reads records from the file or the server, whichever was given.
func (s *sourceFlags) load(ctx context.Context, cfg *config.Config) ([]engine.EquipmentRecord, error) {
	switch {
	case s.file != "" && s.server != "":
		return nil, fmt.Errorf("--file and --server are mutually exclusive")
	case s.file != "":
		data, err := os.ReadFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		records, report, err := helpers.ParseCSVAuto(data, cfg.ParseOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		log.Printf("📊 Parsed %d records (%d dropped, %d invalid values)",
			len(records), len(report.Dropped), len(report.InvalidValues))
		return records, nil
	case s.server != "":
		session := client.NewSession(client.New(client.Config{BaseURL: s.server}),
			client.WithLocalSummary(cfg.EngineOptions()...))
		snap, err := session.Load(ctx, s.uploadID)
		if err != nil {
			return nil, err
		}
		if snap.Upload != nil {
			log.Printf("📡 Loaded %s (%s): %d records", snap.Upload.ID, snap.Upload.Filename, len(snap.Records))
		} else {
			log.Printf("📡 Server has no uploads yet")
		}
		return snap.Records, nil
	default:
		return nil, fmt.Errorf("--file or --server is required")
	}
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	fs.SortFlags = false
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return nil
}

// ============================================================================
// VIEW
// ============================================================================

func runView(args []string) error {
	var (
		common    commonFlags
		source    sourceFlags
		search    string
		sortField string
		direction string
		page      int
		perPage   int
	)
	fs := pflag.NewFlagSet("view", pflag.ContinueOnError)
	source.add(fs)
	fs.StringVarP(&search, "search", "s", "", "Case-insensitive substring of name or type")
	fs.StringVar(&sortField, "sort", "", "Sort field: name, type, flowrate, pressure, temperature")
	fs.StringVar(&direction, "direction", "asc", "Sort direction: asc, desc")
	fs.IntVarP(&page, "page", "p", 1, "Page number (1-based)")
	fs.IntVar(&perPage, "per-page", 0, "Rows per page (default from config)")
	common.add(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := common.checkFormat("json", "pretty", "text", "csv"); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	state, err := buildViewState(cfg.DefaultViewState(), search, sortField, direction, page, perPage)
	if err != nil {
		return err
	}
	records, err := source.load(context.Background(), cfg)
	if err != nil {
		return err
	}

	result := engine.ComputeView(records, state)
	table := engine.BuildTable(result, cfg.EngineOptions()...)

	return withOutput(common.outFile, func(w io.Writer) error {
		switch common.format {
		case "text":
			return writeTableText(w, table)
		case "csv":
			return helpers.WriteTableCSV(w, table)
		default:
			return writeJSON(w, struct {
				View  engine.ViewResult `json:"view"`
				Table *engine.TableData `json:"table"`
			}{result, table}, common.format)
		}
	})
}

// buildViewState applies the flags through the reducer.
func buildViewState(state engine.ViewState, search, sortField, direction string, page, perPage int) (engine.ViewState, error) {
	if perPage > 0 {
		state.ItemsPerPage = perPage
	}
	state = engine.Reduce(state, engine.SetSearch{Term: search})

	if sortField != "" {
		f, ok := engine.ParseField(sortField)
		if !ok {
			return state, fmt.Errorf("unknown sort field %q", sortField)
		}
		if f != state.SortField {
			state = engine.Reduce(state, engine.SetSort{Field: f})
		}
	}
	dir, ok := engine.ParseDirection(direction)
	if !ok {
		return state, fmt.Errorf("--direction must be asc or desc, got %q", direction)
	}
	if dir != state.SortDirection {
		state = engine.Reduce(state, engine.SetSort{Field: state.SortField})
	}

	return engine.Reduce(state, engine.SetPage{Page: page}), nil
}

// ============================================================================
// SUMMARY
// ============================================================================

func runSummary(args []string) error {
	var (
		common commonFlags
		source sourceFlags
		fold   bool
	)
	fs := pflag.NewFlagSet("summary", pflag.ContinueOnError)
	source.add(fs)
	fs.BoolVar(&fold, "fold-types", false, "Merge type labels that differ only in case")
	common.add(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := common.checkFormat("json", "pretty", "text", "csv"); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if fold {
		cfg.View.TypeFolding = true
	}
	records, err := source.load(context.Background(), cfg)
	if err != nil {
		return err
	}

	summary := engine.ComputeSummary(records, cfg.EngineOptions()...)

	return withOutput(common.outFile, func(w io.Writer) error {
		switch common.format {
		case "text":
			return writeCardsText(w, engine.BuildSummaryCards(summary))
		case "csv":
			return writeSummaryCSV(w, summary)
		default:
			return writeJSON(w, summary, common.format)
		}
	})
}

// ============================================================================
// CHARTS
// ============================================================================

func runCharts(args []string) error {
	var (
		common    commonFlags
		source    sourceFlags
		topN      int
		topNField string
		chart     string
	)
	fs := pflag.NewFlagSet("charts", pflag.ContinueOnError)
	source.add(fs)
	fs.IntVar(&topN, "top-n", 0, "Bars in the ranked chart (default from config)")
	fs.StringVar(&topNField, "top-n-field", "", "Field the ranked chart sorts by")
	fs.StringVar(&chart, "chart", "", "Only this chart: types, top, trend (required for csv)")
	common.add(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := common.checkFormat("json", "pretty", "text", "csv"); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if topN > 0 {
		cfg.View.TopN = topN
	}
	if topNField != "" {
		cfg.View.TopNField = topNField
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	records, err := source.load(context.Background(), cfg)
	if err != nil {
		return err
	}

	opts := cfg.EngineOptions()
	charts := engine.BuildCharts(engine.NewSliceView(records), engine.ComputeSummary(records, opts...), opts...)

	var selected []*engine.ChartConfig
	switch chart {
	case "":
		selected = []*engine.ChartConfig{charts.TypeDistribution, charts.TopN, charts.Trend}
	case "types":
		selected = []*engine.ChartConfig{charts.TypeDistribution}
	case "top":
		selected = []*engine.ChartConfig{charts.TopN}
	case "trend":
		selected = []*engine.ChartConfig{charts.Trend}
	default:
		return fmt.Errorf("--chart must be types, top or trend, got %q", chart)
	}
	if common.format == "csv" && len(selected) != 1 {
		return fmt.Errorf("--format csv needs --chart")
	}

	return withOutput(common.outFile, func(w io.Writer) error {
		switch common.format {
		case "text":
			for _, c := range selected {
				if err := writeChartText(w, c); err != nil {
					return err
				}
			}
			return nil
		case "csv":
			return writeChartCSV(w, selected[0])
		default:
			if chart == "" {
				return writeJSON(w, charts, common.format)
			}
			return writeJSON(w, selected[0], common.format)
		}
	})
}

// ============================================================================
// EXPORT
// ============================================================================

func runExport(args []string) error {
	var (
		common    commonFlags
		source    sourceFlags
		search    string
		sortField string
		direction string
	)
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	source.add(fs)
	fs.StringVarP(&search, "search", "s", "", "Case-insensitive substring of name or type")
	fs.StringVar(&sortField, "sort", "", "Sort field: name, type, flowrate, pressure, temperature")
	fs.StringVar(&direction, "direction", "asc", "Sort direction: asc, desc")
	fs.StringVar(&common.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&common.envFile, "env-file", "", "Path to .env file (default: .env)")
	fs.StringVarP(&common.outFile, "out", "o", "", "Write output to file instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	state, err := buildViewState(cfg.DefaultViewState(), search, sortField, direction, 1, 0)
	if err != nil {
		return err
	}
	records, err := source.load(context.Background(), cfg)
	if err != nil {
		return err
	}

	rows := engine.FilterAndSort(records, state)
	if err := withOutput(common.outFile, func(w io.Writer) error {
		return helpers.WriteRecordsCSV(w, rows)
	}); err != nil {
		return err
	}
	if common.outFile != "" {
		log.Printf("📄 %d records written to %s", len(rows), common.outFile)
	}
	return nil
}

// ============================================================================
// DISCOVER
// ============================================================================

func runDiscover(args []string) error {
	var (
		common     commonFlags
		file       string
		sampleSize int
		name       string
	)
	fs := pflag.NewFlagSet("discover", pflag.ContinueOnError)
	fs.StringVar(&file, "file", "", "Path to CSV data file (required)")
	fs.IntVar(&sampleSize, "sample", 1000, "Rows to profile (0 = all)")
	fs.StringVar(&name, "name", "", "Dataset name")
	fs.StringVarP(&common.format, "format", "f", "json", "Output format: json, pretty, text")
	fs.StringVarP(&common.outFile, "out", "o", "", "Write output to file instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if file == "" {
		return fmt.Errorf("--file is required")
	}
	if err := common.checkFormat("json", "pretty", "text"); err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	sch, err := schema.DiscoverFromCSV(data, schema.DiscoverOptions{SampleSize: sampleSize, Name: name})
	if err != nil {
		return err
	}
	log.Printf("🔍 Auto-Detect: %s (%d columns, %d skipped, %d rows sampled)",
		sch.Name, len(sch.Columns), len(sch.SkippedColumns), sch.SampledRows)

	return withOutput(common.outFile, func(w io.Writer) error {
		if common.format == "text" {
			return writeSchemaText(w, sch)
		}
		return writeJSON(w, sch, common.format)
	})
}

// ============================================================================
// UPLOAD / HISTORY — talk to a running server
// ============================================================================

func runUpload(args []string) error {
	var (
		common commonFlags
		file   string
		server string
	)
	fs := pflag.NewFlagSet("upload", pflag.ContinueOnError)
	fs.StringVar(&file, "file", "", "Path to CSV data file (required)")
	fs.StringVar(&server, "server", "", "Dashboard API base URL (required)")
	fs.StringVarP(&common.format, "format", "f", "json", "Output format: json, pretty")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if file == "" || server == "" {
		return fmt.Errorf("--file and --server are required")
	}
	if err := common.checkFormat("json", "pretty"); err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	resp, err := client.New(client.Config{BaseURL: server}).Upload(context.Background(), file, data)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, resp, common.format)
}

func runHistory(args []string) error {
	var (
		common commonFlags
		server string
		limit  int
	)
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	fs.StringVar(&server, "server", "", "Dashboard API base URL (required)")
	fs.IntVarP(&limit, "limit", "n", 0, "Maximum uploads to list")
	fs.StringVarP(&common.format, "format", "f", "json", "Output format: json, pretty, text")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if server == "" {
		return fmt.Errorf("--server is required")
	}
	if err := common.checkFormat("json", "pretty", "text"); err != nil {
		return err
	}

	uploads, err := client.New(client.Config{BaseURL: server}).FetchHistory(context.Background(), limit)
	if err != nil {
		return err
	}
	if common.format == "text" {
		return writeHistoryText(os.Stdout, uploads)
	}
	return writeJSON(os.Stdout, uploads, common.format)
}

// ============================================================================
// HELPERS
// ============================================================================

func withOutput(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any, format string) error {
	var (
		out []byte
		err error
	)
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
