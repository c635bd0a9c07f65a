// Package store provides durable, time-indexed persistence of hive sensor
// readings. It uses DuckDB as the backing database.
//
// The store owns a single append-only table with a secondary index on the
// recorded_at column; every read path is a range scan over that index.
// There is no update-in-place path, so readers never observe a reading
// mutating mid-read. Physical writes are serialized by the connection pool
// while reads run concurrently.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/gabrielmt/hived/internal/errors"
	"github.com/gabrielmt/hived/internal/logging"
)

var log = logging.Component("store")

// =============================================================================
// Configuration
// =============================================================================

// Config holds store configuration options.
type Config struct {
	// Path is the database file path. Empty opens an in-memory database,
	// which is useful in tests.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum lifetime of a connection.
	ConnMaxLifetime time.Duration

	// QueryTimeout is the default timeout for queries.
	QueryTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
	}
}

// =============================================================================
// Store
// =============================================================================

// Store provides database operations over hive readings.
//
// Store is safe for concurrent use. Exactly one Store instance is assumed
// per database file per running process; the handle is created once by the
// owning daemon and passed explicitly to every consumer.
type Store struct {
	db     *sql.DB
	config Config
	mu     sync.RWMutex
	closed bool
	stats  Stats
}

// Stats holds store operation counters.
type Stats struct {
	Inserted int64
	Deleted  int64
	Queries  int64
	Errors   int64
}

const schema = `
CREATE SEQUENCE IF NOT EXISTS readings_id_seq START 1;
CREATE TABLE IF NOT EXISTS readings (
	id BIGINT PRIMARY KEY DEFAULT nextval('readings_id_seq'),
	entries_count INTEGER NOT NULL,
	exits_count INTEGER NOT NULL,
	humidity_internal DOUBLE NOT NULL,
	humidity_external DOUBLE NOT NULL,
	temperature_internal DOUBLE NOT NULL,
	temperature_external DOUBLE NOT NULL,
	luminosity DOUBLE NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_recorded_at ON readings (recorded_at);
`

// Open opens the database at cfg.Path and ensures the schema exists.
// Schema creation is idempotent, so opening an existing database is safe.
// Fails with ErrStoreUnavailable if the backing file cannot be opened.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStoreUnavailable, "open database %q: %v", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrStoreUnavailable, "ping database: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrStoreUnavailable, "create schema: %v", err)
	}

	log.Info("store opened", "path", cfg.Path)

	return &Store{
		db:     db,
		config: cfg,
	}, nil
}

// Close closes the store. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// Stats returns a snapshot of operation counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

func (s *Store) countQuery() {
	s.mu.Lock()
	s.stats.Queries++
	s.mu.Unlock()
}

func (s *Store) countError() {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
}

// =============================================================================
// Writes
// =============================================================================

// Insert appends one reading and returns its assigned id. The reading is
// visible to range queries as soon as Insert returns; there is no buffering.
func (s *Store) Insert(ctx context.Context, r Reading) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO readings (
			entries_count, exits_count,
			humidity_internal, humidity_external,
			temperature_internal, temperature_external,
			luminosity, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		r.EntriesCount, r.ExitsCount,
		r.HumidityInternal, r.HumidityExternal,
		r.TemperatureInternal, r.TemperatureExternal,
		r.Luminosity, r.RecordedAt.UTC(),
	).Scan(&id)
	if err != nil {
		s.countError()
		return 0, fmt.Errorf("insert reading: %w", err)
	}

	s.mu.Lock()
	s.stats.Inserted++
	s.mu.Unlock()

	return id, nil
}

// DeleteOlderThan removes all readings recorded strictly before cutoff and
// returns the count removed. Zero deletions is a normal outcome.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if cutoff.IsZero() {
		return 0, errors.Wrap(errors.ErrInvalidArgument, "zero cutoff")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM readings WHERE recorded_at < ?`, cutoff.UTC())
	if err != nil {
		s.countError()
		return 0, fmt.Errorf("delete readings: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	s.mu.Lock()
	s.stats.Deleted += n
	s.mu.Unlock()

	return n, nil
}

// =============================================================================
// Reads
// =============================================================================

const readingColumns = `
	id, entries_count, exits_count,
	humidity_internal, humidity_external,
	temperature_internal, temperature_external,
	luminosity, recorded_at`

// QueryByRange returns readings with recorded_at in [start, end] inclusive,
// ascending by timestamp. An inverted range (end before start) yields an
// empty result, not an error.
func (s *Store) QueryByRange(ctx context.Context, start, end time.Time) ([]Reading, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidArgument, "zero range bound")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+readingColumns+`
		FROM readings
		WHERE recorded_at BETWEEN ? AND ?
		ORDER BY recorded_at ASC`,
		start.UTC(), end.UTC())
	if err != nil {
		s.countError()
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	s.countQuery()
	return scanReadings(rows)
}

// QueryOlderThan returns readings recorded strictly before cutoff, ascending
// by timestamp. It selects exactly the rows a DeleteOlderThan with the same
// cutoff would remove, which lets a sweep archive before it deletes.
func (s *Store) QueryOlderThan(ctx context.Context, cutoff time.Time) ([]Reading, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if cutoff.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidArgument, "zero cutoff")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+readingColumns+`
		FROM readings
		WHERE recorded_at < ?
		ORDER BY recorded_at ASC`,
		cutoff.UTC())
	if err != nil {
		s.countError()
		return nil, fmt.Errorf("query older than: %w", err)
	}
	defer rows.Close()

	s.countQuery()
	return scanReadings(rows)
}

// QueryByDay returns all readings recorded within the given calendar day,
// local time, ascending by timestamp.
func (s *Store) QueryByDay(ctx context.Context, day time.Time) ([]Reading, error) {
	if day.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidArgument, "zero day")
	}

	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	return s.QueryByRange(ctx, start, end)
}

// Latest returns the most recent reading, or nil when the store is empty.
func (s *Store) Latest(ctx context.Context) (*Reading, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+readingColumns+`
		FROM readings
		ORDER BY recorded_at DESC
		LIMIT 1`)

	var r Reading
	err := row.Scan(
		&r.ID, &r.EntriesCount, &r.ExitsCount,
		&r.HumidityInternal, &r.HumidityExternal,
		&r.TemperatureInternal, &r.TemperatureExternal,
		&r.Luminosity, &r.RecordedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.countError()
		return nil, fmt.Errorf("query latest: %w", err)
	}

	s.countQuery()
	return &r, nil
}

// CountAll returns the total number of stored readings.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM readings`).Scan(&n); err != nil {
		s.countError()
		return 0, fmt.Errorf("count readings: %w", err)
	}

	s.countQuery()
	return n, nil
}

// scanReadings scans rows into a Reading slice.
func scanReadings(rows *sql.Rows) ([]Reading, error) {
	var readings []Reading

	for rows.Next() {
		var r Reading
		err := rows.Scan(
			&r.ID, &r.EntriesCount, &r.ExitsCount,
			&r.HumidityInternal, &r.HumidityExternal,
			&r.TemperatureInternal, &r.TemperatureExternal,
			&r.Luminosity, &r.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, nil
}
