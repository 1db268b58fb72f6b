package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spektr-org/equipdash/engine"
)

// ============================================================================
// POSTGRES STORE
// ============================================================================
// uploads            one row per upload; seq breaks uploaded_at ties
// equipment_records  one row per record; NULL reading = absent
// Deleting an upload cascades to its records.
// ============================================================================

const schemaSQL = `
CREATE TABLE IF NOT EXISTS uploads (
	seq          BIGSERIAL,
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	uploaded_at  TIMESTAMPTZ NOT NULL,
	record_count INTEGER NOT NULL,
	archive_key  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS equipment_records (
	upload_id   TEXT NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	record_id   TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	flowrate    DOUBLE PRECISION,
	pressure    DOUBLE PRECISION,
	temperature DOUBLE PRECISION,
	PRIMARY KEY (upload_id, position)
);`

// NewPostgresPool parses dsn, opens a pool and pings it.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config failed: %w", err)
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pool creation error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	log.Printf("🔌 Connected to Postgres (%s)", poolConfig.ConnConfig.Database)
	return pool, nil
}

// PostgresStore keeps uploads in Postgres.
type PostgresStore struct {
	Pool *pgxpool.Pool
	opts options
}

// NewPostgresStore wraps a connected pool. Call Migrate before first use.
func NewPostgresStore(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	return &PostgresStore{Pool: pool, opts: applyOptions(opts)}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, upload Upload, records []engine.EquipmentRecord) error {
	upload.RecordCount = len(records)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, upload.ID); err != nil {
		return fmt.Errorf("replace upload %s: %w", upload.ID, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO uploads (id, filename, uploaded_at, record_count, archive_key) VALUES ($1, $2, $3, $4, $5)`,
		upload.ID, upload.Filename, upload.UploadedAt, upload.RecordCount, upload.ArchiveKey)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", upload.ID, err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{upload.ID, i, r.ID, r.Name, r.Type, nullable(r.Flowrate), nullable(r.Pressure), nullable(r.Temperature)}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"equipment_records"},
		[]string{"upload_id", "position", "record_id", "name", "type", "flowrate", "pressure", "temperature"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy records for %s: %w", upload.ID, err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM uploads WHERE id NOT IN (
			SELECT id FROM uploads ORDER BY uploaded_at DESC, seq DESC LIMIT $1
		)`, s.opts.keep)
	if err != nil {
		return fmt.Errorf("prune uploads: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Latest(ctx context.Context) (*Upload, error) {
	return s.queryUpload(ctx, `SELECT id, filename, uploaded_at, record_count, archive_key
		FROM uploads ORDER BY uploaded_at DESC, seq DESC LIMIT 1`)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Upload, error) {
	return s.queryUpload(ctx, `SELECT id, filename, uploaded_at, record_count, archive_key
		FROM uploads WHERE id = $1`, id)
}

func (s *PostgresStore) queryUpload(ctx context.Context, sql string, args ...any) (*Upload, error) {
	var u Upload
	err := s.Pool.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Filename, &u.UploadedAt, &u.RecordCount, &u.ArchiveKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query upload: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Records(ctx context.Context, id string) ([]engine.EquipmentRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT record_id, name, type, flowrate, pressure, temperature
		FROM equipment_records WHERE upload_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query records %s: %w", id, err)
	}
	defer rows.Close()

	records := make([]engine.EquipmentRecord, 0)
	for rows.Next() {
		var (
			r                 engine.EquipmentRecord
			flow, press, temp *float64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &flow, &press, &temp); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Flowrate, r.Pressure, r.Temperature = fromNullable(flow), fromNullable(press), fromNullable(temp)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records %s: %w", id, err)
	}
	return records, nil
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]Upload, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, filename, uploaded_at, record_count, archive_key
		FROM uploads ORDER BY uploaded_at DESC, seq DESC LIMIT $1`, historyLimit(limit, s.opts.keep))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]Upload, 0)
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Filename, &u.UploadedAt, &u.RecordCount, &u.ArchiveKey); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func nullable(m engine.Measurement) *float64 {
	v, ok := m.Get()
	if !ok {
		return nil
	}
	return &v
}

func fromNullable(v *float64) engine.Measurement {
	if v == nil {
		return engine.None()
	}
	return engine.Some(*v)
}
