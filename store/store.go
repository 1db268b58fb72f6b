package store

import (
	"context"
	"errors"
	"time"

	"github.com/spektr-org/equipdash/engine"
)

// ============================================================================
// STORE — Upload history and the parsed record sets behind it
// ============================================================================
// Every upload is kept with its records until it falls out of the newest
// `keep` uploads (default 5). Records are returned in upload order; the
// engine never needs the store to sort or filter.
//
// Implementations:
//   MemoryStore   — process-local, for the CLI and tests
//   RedisStore    — JSON blobs plus a capped history list
//   PostgresStore — uploads + equipment_records tables (pgxpool)
// ============================================================================

// DefaultKeep is the number of uploads retained.
const DefaultKeep = 5

// ErrNotFound is returned for an unknown upload id, or by Latest when no
// upload exists yet.
var ErrNotFound = errors.New("upload not found")

// Upload is one accepted CSV file.
type Upload struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	UploadedAt  time.Time `json:"uploaded_at"`
	RecordCount int       `json:"record_count"`
	ArchiveKey  string    `json:"archive_key,omitempty"`
}

// Store persists uploads. Implementations must be safe for concurrent use.
type Store interface {
	// Save stores upload with its records and prunes uploads beyond keep.
	Save(ctx context.Context, upload Upload, records []engine.EquipmentRecord) error
	// Latest returns the newest upload.
	Latest(ctx context.Context) (*Upload, error)
	Get(ctx context.Context, id string) (*Upload, error)
	Records(ctx context.Context, id string) ([]engine.EquipmentRecord, error)
	// History returns up to limit uploads, newest first. limit <= 0 means all kept.
	History(ctx context.Context, limit int) ([]Upload, error)
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	keep int
	ttl  time.Duration
}

// WithKeep sets how many uploads are retained.
func WithKeep(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.keep = n
		}
	}
}

// WithTTL expires Redis keys after d. Ignored by other stores.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{keep: DefaultKeep}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func historyLimit(limit, keep int) int {
	if limit <= 0 || limit > keep {
		return keep
	}
	return limit
}
