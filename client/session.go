package client

import (
	"context"
	"errors"
	"sync"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/store"
)

// ============================================================================
// SESSION — The client-side dashboard state
// ============================================================================
// A Session owns the current record set, its summary and the table controls.
// Loads race: the user can pick another upload while a fetch is in flight.
// Every Load takes a generation number and only the newest generation may
// replace the state. Records and summary are swapped together under one lock
// so a reader never sees records from one upload with another's summary.
// ============================================================================

// ErrStale is returned by a Load that was superseded by a later Load.
var ErrStale = errors.New("load superseded by a newer request")

// Fetcher is the part of the API a Session needs.
type Fetcher interface {
	FetchRecords(ctx context.Context, uploadID string) (*store.Upload, []engine.EquipmentRecord, error)
	FetchSummary(ctx context.Context, uploadID string) (engine.SummaryStats, error)
}

// Snapshot is one consistent record set.
type Snapshot struct {
	Generation uint64
	Upload     *store.Upload // nil when the server has no uploads
	Records    []engine.EquipmentRecord
	Summary    engine.SummaryStats
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLocalSummary computes the summary from the fetched records instead
// of asking the server. Both sides run engine.ComputeSummary.
func WithLocalSummary(opts ...engine.Option) SessionOption {
	return func(s *Session) {
		s.localSummary = true
		s.engineOpts = opts
	}
}

// WithItemsPerPage sets the table page size.
func WithItemsPerPage(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.state.ItemsPerPage = n
		}
	}
}

// Session holds dashboard state. Safe for concurrent use.
type Session struct {
	fetcher      Fetcher
	localSummary bool
	engineOpts   []engine.Option

	mu      sync.RWMutex
	issued  uint64
	current Snapshot
	state   engine.ViewState
}

// NewSession creates an empty Session.
func NewSession(f Fetcher, opts ...SessionOption) *Session {
	s := &Session{
		fetcher: f,
		state:   engine.DefaultViewState(),
		current: Snapshot{
			Records: []engine.EquipmentRecord{},
			Summary: engine.ComputeSummary(nil),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches an upload (empty id = newest) and installs it unless a later
// Load was issued meanwhile, in which case it returns ErrStale and leaves
// the state alone. Fetch errors also leave the state alone.
func (s *Session) Load(ctx context.Context, uploadID string) (*Snapshot, error) {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	upload, records, err := s.fetcher.FetchRecords(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if s.superseded(gen) {
		return nil, ErrStale
	}

	var summary engine.SummaryStats
	if s.localSummary || upload == nil {
		// Without an upload there is nothing to pin a server summary to.
		summary = engine.ComputeSummary(records, s.engineOpts...)
	} else {
		// Pin the summary to the upload we got records for.
		summary, err = s.fetcher.FetchSummary(ctx, upload.ID)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		return nil, ErrStale
	}
	s.current = Snapshot{
		Generation: gen,
		Upload:     upload,
		Records:    records,
		Summary:    summary,
	}
	s.state = engine.Reduce(s.state, engine.Reset{})
	snap := s.current
	return &snap, nil
}

// Current returns the installed snapshot.
func (s *Session) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch applies a table action and returns the new controls.
func (s *Session) Dispatch(action engine.Action) engine.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = engine.Reduce(s.state, action)
	return s.state
}

// View computes the table page for the current records. A page left out of
// range by a narrower search is pulled back in and stored.
func (s *Session) View() engine.ViewResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := engine.ComputeView(s.current.Records, s.state)
	if clamped := engine.Reduce(s.state, engine.ClampPage{TotalPages: result.TotalPages}); clamped != s.state {
		s.state = clamped
		result = engine.ComputeView(s.current.Records, s.state)
	}
	return result
}

func (s *Session) superseded(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen != s.issued
}
