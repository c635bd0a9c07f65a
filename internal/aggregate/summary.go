package aggregate

import (
	"sort"
	"time"

	"github.com/gabrielmt/hived/internal/store"
)

// Summary holds period totals and the peak-activity instant.
type Summary struct {
	TotalEntries int
	TotalExits   int

	// PeakActivity is the timestamp of the reading maximizing
	// entries+exits, or nil when the set is empty.
	PeakActivity *time.Time
}

// Summarize computes totals and the peak-activity timestamp over an
// arbitrary reading set. Ties on activity go to the first reading in
// ascending-timestamp order, so the result is deterministic regardless of
// input order. An empty set yields zero totals and a nil peak, not an error.
func Summarize(readings []store.Reading) Summary {
	var s Summary
	if len(readings) == 0 {
		return s
	}

	ordered := make([]store.Reading, len(readings))
	copy(ordered, readings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	peak := -1
	for _, r := range ordered {
		s.TotalEntries += r.EntriesCount
		s.TotalExits += r.ExitsCount

		if r.Activity() > peak {
			peak = r.Activity()
			t := r.RecordedAt
			s.PeakActivity = &t
		}
	}

	return s
}
