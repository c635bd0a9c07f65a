// Package scheduler drives the periodic maintenance cycle: each tick runs a
// retention sweep, then computes and dispatches the daily activity summary.
//
// Ticks are independent: a failed sweep or summary is logged and superseded
// by the next tick, never carried forward. The tick interval is clamped to a
// 24 hour minimum to bound resource cost; a missed tick simply runs fresh
// state on the next one.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gabrielmt/hived/internal/aggregate"
	"github.com/gabrielmt/hived/internal/logging"
	"github.com/gabrielmt/hived/internal/notify"
	"github.com/gabrielmt/hived/internal/store"
)

var log = logging.Component("scheduler")

// MinInterval is the smallest allowed tick interval.
const MinInterval = 24 * time.Hour

// Sweeper runs one retention pass.
type Sweeper interface {
	SweepNow(ctx context.Context) (int64, error)
}

// DayQuerier returns the readings of one calendar day.
type DayQuerier interface {
	QueryByDay(ctx context.Context, day time.Time) ([]store.Reading, error)
}

// Config holds scheduler configuration.
type Config struct {
	// Interval between ticks; values below MinInterval are clamped.
	Interval time.Duration
}

// Stats holds scheduler counters.
type Stats struct {
	Ticks        int64
	SweepErrors  int64
	ReportErrors int64
	LastTick     time.Time
}

// Scheduler owns the periodic trigger.
type Scheduler struct {
	cfg      Config
	sweeper  Sweeper
	db       DayQuerier
	notifier notify.Dispatcher
	now      func() time.Time

	mu    sync.Mutex
	stats Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler. The interval is clamped to MinInterval.
func New(cfg Config, sweeper Sweeper, db DayQuerier, notifier notify.Dispatcher, opts ...Option) *Scheduler {
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}

	s := &Scheduler{
		cfg:      cfg,
		sweeper:  sweeper,
		db:       db,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is canceled. The first tick fires after one full
// interval, not immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info("scheduler started", "interval", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return ctx.Err()
		}
	}
}

// Tick runs one maintenance cycle: sweep, then daily report. Errors are
// logged and counted; no error aborts the cycle permanently.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	s.stats.Ticks++
	s.stats.LastTick = s.now()
	s.mu.Unlock()

	if deleted, err := s.sweeper.SweepNow(ctx); err != nil {
		s.mu.Lock()
		s.stats.SweepErrors++
		s.mu.Unlock()
		log.Error("retention sweep failed", "error", err)
	} else {
		log.Debug("retention sweep done", "deleted", deleted)
	}

	if err := s.dailyReport(ctx); err != nil {
		s.mu.Lock()
		s.stats.ReportErrors++
		s.mu.Unlock()
		log.Error("daily report failed", "error", err)
	}
}

// dailyReport summarizes today's readings and dispatches the report. A day
// with zero readings is itself a reportable state, not a suppressed one.
func (s *Scheduler) dailyReport(ctx context.Context) error {
	today := s.now()

	readings, err := s.db.QueryByDay(ctx, today)
	if err != nil {
		return err
	}

	title := "Hive daily report"
	body := ReportBody(aggregate.Summarize(readings))

	return s.notifier.Notify(ctx, title, body)
}

// ReportBody renders one human-readable daily summary line.
func ReportBody(sum aggregate.Summary) string {
	if sum.TotalEntries == 0 && sum.TotalExits == 0 && sum.PeakActivity == nil {
		return "No hive activity recorded today."
	}

	body := fmt.Sprintf("Today's summary: %d bees in, %d bees out.",
		sum.TotalEntries, sum.TotalExits)
	if sum.PeakActivity != nil {
		body += fmt.Sprintf(" Peak activity at %s.", sum.PeakActivity.Format("15:04"))
	}
	return body
}

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
