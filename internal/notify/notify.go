// Package notify defines the outbound notification hook. The core emits
// human-readable (title, body) pairs; how they reach a user is the
// dispatcher's concern, not the pipeline's.
package notify

import (
	"context"
	"sync"

	"github.com/gabrielmt/hived/internal/logging"
)

// Dispatcher delivers one notification.
type Dispatcher interface {
	Notify(ctx context.Context, title, body string) error
}

// LogDispatcher writes notifications to the structured log. It is the
// daemon's default sink.
type LogDispatcher struct{}

// Notify implements Dispatcher.
func (LogDispatcher) Notify(_ context.Context, title, body string) error {
	logging.Component("notify").Info("notification", "title", title, "body", body)
	return nil
}

// Recorder captures notifications for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded notification.
type Entry struct {
	Title string
	Body  string
}

// Notify implements Dispatcher.
func (r *Recorder) Notify(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Title: title, Body: body})
	return nil
}

// Entries returns a copy of the recorded notifications.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
