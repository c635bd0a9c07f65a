// Package ingest owns the write path from the stream connector into the
// record store. It consumes the connector's records channel in order, so
// delivery stays at-least-once and order-preserving without relying on
// callback registration order.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gabrielmt/hived/internal/logging"
	"github.com/gabrielmt/hived/internal/notify"
	"github.com/gabrielmt/hived/internal/store"
)

var log = logging.Component("ingest")

// Inserter is the slice of the record store the writer needs.
type Inserter interface {
	Insert(ctx context.Context, r store.Reading) (int64, error)
}

// Stats holds writer counters.
type Stats struct {
	Stored int64
	Failed int64
}

// Writer drains a readings channel into the store. Insert failures are
// logged and counted but never stop the loop; the feed keeps flowing.
type Writer struct {
	db       Inserter
	records  <-chan store.Reading
	notifier notify.Dispatcher

	// notifyEvery throttles "new data" notifications; zero disables them.
	notifyEvery time.Duration
	lastNotify  time.Time

	mu    sync.Mutex
	stats Stats
}

// Option configures a Writer.
type Option func(*Writer)

// WithNotifier enables a "new hive data" notification for stored readings,
// throttled to at most one per interval so a fast feed does not spam.
func WithNotifier(d notify.Dispatcher, every time.Duration) Option {
	return func(w *Writer) {
		w.notifier = d
		w.notifyEvery = every
	}
}

// New creates a Writer over the given store and records channel.
func New(db Inserter, records <-chan store.Reading, opts ...Option) *Writer {
	w := &Writer{
		db:      db,
		records: records,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes records until ctx is canceled, then drains whatever is
// already buffered in the channel before returning.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case r := <-w.records:
			w.storeOne(ctx, r)
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		}
	}
}

// drain stores records already buffered at shutdown, using a short grace
// context so a wedged store cannot hang exit.
func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case r := <-w.records:
			w.storeOne(ctx, r)
		default:
			return
		}
	}
}

func (w *Writer) storeOne(ctx context.Context, r store.Reading) {
	id, err := w.db.Insert(ctx, r)
	if err != nil {
		w.mu.Lock()
		w.stats.Failed++
		w.mu.Unlock()
		log.Error("store reading failed", "error", err, "recorded_at", r.RecordedAt)
		return
	}

	w.mu.Lock()
	w.stats.Stored++
	w.mu.Unlock()
	log.Debug("reading stored", "id", id, "recorded_at", r.RecordedAt)

	w.maybeNotify(ctx, r)
}

func (w *Writer) maybeNotify(ctx context.Context, r store.Reading) {
	if w.notifier == nil || w.notifyEvery <= 0 {
		return
	}

	now := time.Now()
	if !w.lastNotify.IsZero() && now.Sub(w.lastNotify) < w.notifyEvery {
		return
	}
	w.lastNotify = now

	body := fmt.Sprintf("Bees: %d in, %d out | Temp: %.1f°C",
		r.EntriesCount, r.ExitsCount, r.TemperatureInternal)
	if err := w.notifier.Notify(ctx, "New hive data", body); err != nil {
		log.Warn("notification failed", "error", err)
	}
}

// Stats returns a snapshot of writer counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
