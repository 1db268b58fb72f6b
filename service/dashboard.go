package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/equipdash/archive"
	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/helpers"
	"github.com/spektr-org/equipdash/store"
)

// ============================================================================
// DASHBOARD SERVICE — Upload, history and every dashboard view
// ============================================================================
// Pipeline for an upload:
//   1. Check the file extension
//   2. Parse + resolve columns (helpers.ParseCSVAuto)
//   3. Reject files with no usable rows
//   4. Archive the raw bytes (best effort)
//   5. Save records; the store prunes beyond its keep limit
//
// Reads take an upload id. An empty id means the newest upload; when there
// is no upload at all, reads return an empty record set instead of an error.
// ============================================================================

var (
	ErrNotCSV    = errors.New("file must be a CSV")
	ErrParse     = errors.New("failed to parse CSV")
	ErrNoRecords = errors.New("CSV file contains no valid data")
)

// Option configures the Dashboard.
type Option func(*Dashboard)

// WithEngineOptions sets the options passed to every engine call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(d *Dashboard) { d.engineOpts = opts }
}

// WithParseOptions sets CSV row handling.
func WithParseOptions(opts helpers.ParseOptions) Option {
	return func(d *Dashboard) { d.parseOpts = opts }
}

// WithURLExpiry sets how long raw download links stay valid.
func WithURLExpiry(expiry time.Duration) Option {
	return func(d *Dashboard) {
		if expiry > 0 {
			d.urlExpiry = expiry
		}
	}
}

// WithClock overrides time.Now for upload timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// Dashboard is the use case behind the HTTP API and the CLI.
type Dashboard struct {
	Store   store.Store
	Archive archive.Archiver

	engineOpts []engine.Option
	parseOpts  helpers.ParseOptions
	urlExpiry  time.Duration
	now        func() time.Time
	newID      func() string
}

// New creates a Dashboard. A nil archiver disables archiving.
func New(st store.Store, ar archive.Archiver, opts ...Option) *Dashboard {
	if ar == nil {
		ar = archive.Nop{}
	}
	d := &Dashboard{
		Store:     st,
		Archive:   ar,
		urlExpiry: 15 * time.Minute,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// UploadResult is returned by a successful Upload.
type UploadResult struct {
	Upload  store.Upload         `json:"upload"`
	Summary engine.SummaryStats  `json:"summary"`
	Report  *helpers.ParseReport `json:"report"`
}

// Upload parses and stores a CSV file.
func (d *Dashboard) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, ErrNotCSV
	}

	records, report, err := helpers.ParseCSVAuto(data, d.parseOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	upload := store.Upload{
		ID:          d.newID(),
		Filename:    filename,
		UploadedAt:  d.now().UTC(),
		RecordCount: len(records),
	}

	key := archive.Key(upload.ID, filename)
	if err := d.Archive.Archive(ctx, key, data); err != nil {
		log.Printf("⚠️ Archive of %s failed: %v", filename, err)
	} else if _, disabled := d.Archive.(archive.Nop); !disabled {
		upload.ArchiveKey = key
	}

	if err := d.Store.Save(ctx, upload, records); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	log.Printf("📥 Stored %s as %s: %d records (%d rows, %d dropped, %d invalid values)",
		filename, upload.ID, len(records), report.Rows, len(report.Dropped), len(report.InvalidValues))

	return &UploadResult{
		Upload:  upload,
		Summary: engine.ComputeSummary(records, d.engineOpts...),
		Report:  report,
	}, nil
}

// Records returns an upload and its records. upload is nil when the id is
// empty and nothing has been uploaded yet.
func (d *Dashboard) Records(ctx context.Context, uploadID string) (*store.Upload, []engine.EquipmentRecord, error) {
	var (
		upload *store.Upload
		err    error
	)
	if uploadID == "" {
		upload, err = d.Store.Latest(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil, []engine.EquipmentRecord{}, nil
		}
	} else {
		upload, err = d.Store.Get(ctx, uploadID)
	}
	if err != nil {
		return nil, nil, err
	}

	records, err := d.Store.Records(ctx, upload.ID)
	if err != nil {
		return nil, nil, err
	}
	return upload, records, nil
}

// Summary computes SummaryStats for an upload.
func (d *Dashboard) Summary(ctx context.Context, uploadID string) (engine.SummaryStats, error) {
	_, records, err := d.Records(ctx, uploadID)
	if err != nil {
		return engine.SummaryStats{}, err
	}
	return engine.ComputeSummary(records, d.engineOpts...), nil
}

// View computes one table page and its rendered form.
func (d *Dashboard) View(ctx context.Context, uploadID string, state engine.ViewState) (engine.ViewResult, *engine.TableData, error) {
	_, records, err := d.Records(ctx, uploadID)
	if err != nil {
		return engine.ViewResult{}, nil, err
	}
	result := engine.ComputeView(records, state)
	return result, engine.BuildTable(result, d.engineOpts...), nil
}

// Charts builds the dashboard charts for an upload.
func (d *Dashboard) Charts(ctx context.Context, uploadID string) (*engine.Charts, error) {
	_, records, err := d.Records(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	summary := engine.ComputeSummary(records, d.engineOpts...)
	return engine.BuildCharts(engine.NewSliceView(records), summary, d.engineOpts...), nil
}

// Snapshot builds table, summary, cards and charts from one read.
func (d *Dashboard) Snapshot(ctx context.Context, uploadID string, state engine.ViewState) (*engine.Result, error) {
	_, records, err := d.Records(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return engine.BuildDashboard(records, state, d.engineOpts...), nil
}

// History lists recent uploads, newest first.
func (d *Dashboard) History(ctx context.Context, limit int) ([]store.Upload, error) {
	return d.Store.History(ctx, limit)
}

// Detail is one upload with its records and summary.
type Detail struct {
	store.Upload
	Equipment []engine.EquipmentRecord `json:"equipment"`
	Summary   engine.SummaryStats      `json:"summary"`
}

// Detail returns an upload with its records.
func (d *Dashboard) Detail(ctx context.Context, uploadID string) (*Detail, error) {
	if uploadID == "" {
		return nil, store.ErrNotFound
	}
	upload, records, err := d.Records(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Upload:    *upload,
		Equipment: records,
		Summary:   engine.ComputeSummary(records, d.engineOpts...),
	}, nil
}

// RawURL returns a time-limited download link for the original file.
func (d *Dashboard) RawURL(ctx context.Context, uploadID string) (string, error) {
	upload, err := d.Store.Get(ctx, uploadID)
	if err != nil {
		return "", err
	}
	if upload.ArchiveKey == "" {
		return "", archive.ErrDisabled
	}
	return d.Archive.URL(ctx, upload.ArchiveKey, d.urlExpiry)
}

// Export writes every record matching state's search, in state's order,
// as CSV. Pagination is ignored.
func (d *Dashboard) Export(ctx context.Context, w io.Writer, uploadID string, state engine.ViewState) error {
	_, records, err := d.Records(ctx, uploadID)
	if err != nil {
		return err
	}
	return helpers.WriteRecordsCSV(w, engine.FilterAndSort(records, state))
}
