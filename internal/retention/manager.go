// Package retention computes cutoff instants from the configured policy and
// deletes expired readings from the store, optionally archiving them to
// Parquet first.
package retention

import (
	"context"
	"sync"
	"time"

	"github.com/gabrielmt/hived/internal/archive"
	"github.com/gabrielmt/hived/internal/errors"
	"github.com/gabrielmt/hived/internal/logging"
	"github.com/gabrielmt/hived/internal/settings"
	"github.com/gabrielmt/hived/internal/store"
)

var log = logging.Component("retention")

// Store is the slice of the record store a sweep needs.
type Store interface {
	QueryOlderThan(ctx context.Context, cutoff time.Time) ([]store.Reading, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PolicyStore persists the named retention policy.
type PolicyStore interface {
	Retention() string
	SetRetention(name string) error
}

// Stats holds retention statistics.
type Stats struct {
	LastSweepTime   time.Time
	SweepsRun       int64
	ReadingsDeleted int64
	ReadingsSaved   int64
	Errors          int64
}

// Manager owns the retention policy and runs sweeps against the store.
//
// Sweeps are idempotent and safe to run concurrently with ingestion: inserts
// always target "now" while a sweep only touches rows behind a strictly-past
// cutoff, so the two never contend over the same key range.
type Manager struct {
	mu    sync.Mutex
	db    Store
	pol   PolicyStore
	arch  *archive.Options // nil disables archiving
	now   func() time.Time // injectable clock for tests
	stats Stats
}

// Option configures a Manager.
type Option func(*Manager)

// WithArchive enables Parquet archiving of swept readings.
func WithArchive(opts archive.Options) Option {
	return func(m *Manager) { m.arch = &opts }
}

// WithClock overrides the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a retention manager over the given store and policy store.
func New(db Store, pol PolicyStore, opts ...Option) *Manager {
	m := &Manager{
		db:  db,
		pol: pol,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CurrentPolicy returns the persisted policy name, falling back to the
// default for anything unset or unrecognized. It never returns an error.
func (m *Manager) CurrentPolicy() string {
	return m.pol.Retention()
}

// SetPolicy persists a new policy name. Names outside the recognized set
// are rejected and nothing changes.
func (m *Manager) SetPolicy(name string) error {
	return m.pol.SetRetention(name)
}

// Cutoff returns the retention cutoff for the given policy relative to now.
// Unrecognized policy names use the default; a persisted legacy value must
// never make a sweep fatal.
//
// The long policy subtracts one calendar month with day-of-month clamping:
// March 31 yields February 28 (29 in a leap year), not March 3.
func Cutoff(now time.Time, policy string) time.Time {
	switch policy {
	case settings.PolicyShort:
		return now.AddDate(0, 0, -1)
	case settings.PolicyMedium:
		return now.AddDate(0, 0, -7)
	case settings.PolicyLong:
		return subtractCalendarMonth(now)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// subtractCalendarMonth moves t back one month, clamping the day-of-month to
// the target month's length. time.Time.AddDate normalizes overflow forward
// (Mar 31 - 1 month = Mar 3), which is exactly the behavior to avoid.
func subtractCalendarMonth(t time.Time) time.Time {
	y, mo, d := t.Date()

	firstOfMonth := time.Date(y, mo, 1, 0, 0, 0, 0, t.Location())
	prev := firstOfMonth.AddDate(0, -1, 0)

	lastDay := daysInMonth(prev.Year(), prev.Month())
	if d > lastDay {
		d = lastDay
	}

	h, min, sec := t.Clock()
	return time.Date(prev.Year(), prev.Month(), d, h, min, sec, t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SweepNow computes the cutoff from the current policy and deletes every
// reading older than it, returning the count removed. Zero deletions is a
// normal outcome. When archiving is enabled the expired rows are written to
// Parquet first; an archive failure aborts the delete for this sweep so no
// data is lost, and the next sweep retries.
func (m *Manager) SweepNow(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	policy := m.CurrentPolicy()
	cutoff := Cutoff(m.now(), policy)

	m.stats.LastSweepTime = m.now()
	m.stats.SweepsRun++

	if m.arch != nil {
		expired, err := m.db.QueryOlderThan(ctx, cutoff)
		if err != nil {
			m.stats.Errors++
			return 0, errors.Wrap(err, "query expired readings")
		}
		path, err := archive.WriteSweep(*m.arch, cutoff, expired)
		if err != nil {
			m.stats.Errors++
			return 0, errors.Wrap(err, "archive expired readings")
		}
		if path != "" {
			m.stats.ReadingsSaved += int64(len(expired))
			log.Info("archived expired readings", "count", len(expired), "file", path)
		}
	}

	deleted, err := m.db.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		m.stats.Errors++
		return 0, errors.Wrap(err, "delete expired readings")
	}

	m.stats.ReadingsDeleted += deleted
	log.Info("sweep done", "policy", policy, "cutoff", cutoff, "deleted", deleted)

	return deleted, nil
}

// Stats returns a snapshot of retention statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
