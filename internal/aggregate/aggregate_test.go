package aggregate

import (
	"testing"
	"time"

	"github.com/gabrielmt/hived/internal/store"
)

func reading(ts time.Time, entries, exits int) store.Reading {
	return store.Reading{
		EntriesCount: entries,
		ExitsCount:   exits,
		RecordedAt:   ts,
	}
}

func TestSelectGranularity(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		span     time.Duration
		expected Granularity
	}{
		{name: "90 minutes", span: 90 * time.Minute, expected: FiveMinute},
		{name: "just under 2 hours", span: 2*time.Hour - time.Second, expected: FiveMinute},
		{name: "exactly 2 hours", span: 2 * time.Hour, expected: Hour},
		{name: "2 days", span: 48 * time.Hour, expected: Hour},
		{name: "3 days", span: 72 * time.Hour, expected: Day},
		{name: "90 days", span: 90 * 24 * time.Hour, expected: Day},
		{name: "6 months", span: 180 * 24 * time.Hour, expected: Week},
		{name: "2 years", span: 730 * 24 * time.Hour, expected: Week},
		{name: "3 years", span: 3 * 365 * 24 * time.Hour, expected: Month},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectGranularity(base, base.Add(tt.span))
			if got != tt.expected {
				t.Errorf("span %v: expected %v, got %v", tt.span, tt.expected, got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	// Wednesday, 2026-08-12 14:37:42.5
	ts := time.Date(2026, 8, 12, 14, 37, 42, 500_000_000, time.UTC)

	tests := []struct {
		name     string
		g        Granularity
		expected time.Time
	}{
		{
			name:     "five minute",
			g:        FiveMinute,
			expected: time.Date(2026, 8, 12, 14, 35, 0, 0, time.UTC),
		},
		{
			name:     "hour",
			g:        Hour,
			expected: time.Date(2026, 8, 12, 14, 0, 0, 0, time.UTC),
		},
		{
			name:     "day",
			g:        Day,
			expected: time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "week starts sunday",
			g:    Week,
			// 2026-08-12 is a Wednesday; the containing week starts
			// Sunday 2026-08-09.
			expected: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "month",
			g:        Month,
			expected: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(ts, tt.g)
			if !got.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTruncate_SundayIsItsOwnWeekStart(t *testing.T) {
	sunday := time.Date(2026, 8, 9, 18, 0, 0, 0, time.UTC)
	got := Truncate(sunday, Week)
	expected := time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestBucketize_BoundaryStraddle(t *testing.T) {
	// Two readings 10 minutes apart straddling a 5-minute boundary must
	// land in different buckets.
	a := reading(time.Date(2026, 8, 1, 10, 4, 0, 0, time.UTC), 1, 0)
	b := reading(time.Date(2026, 8, 1, 10, 14, 0, 0, time.UTC), 2, 0)

	buckets := Bucketize([]store.Reading{a, b}, FiveMinute)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}

	// Two readings inside the same 5-minute window share a bucket.
	c := reading(time.Date(2026, 8, 1, 10, 5, 10, 0, time.UTC), 1, 1)
	d := reading(time.Date(2026, 8, 1, 10, 9, 59, 0, time.UTC), 2, 2)

	buckets = Bucketize([]store.Reading{c, d}, FiveMinute)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Entries != 3 || buckets[0].Exits != 3 {
		t.Errorf("expected summed activity 3/3, got %d/%d",
			buckets[0].Entries, buckets[0].Exits)
	}
	if buckets[0].Count != 2 {
		t.Errorf("expected member count 2, got %d", buckets[0].Count)
	}
}

func TestBucketize_SortedAndGapsNotSynthesized(t *testing.T) {
	// Out-of-order input, with an empty hour between observations.
	readings := []store.Reading{
		reading(time.Date(2026, 8, 1, 12, 15, 0, 0, time.UTC), 5, 0),
		reading(time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC), 1, 2),
		reading(time.Date(2026, 8, 1, 12, 45, 0, 0, time.UTC), 0, 4),
	}

	buckets := Bucketize(readings, Hour)

	// Hours 10 and 11 have no readings and must not appear.
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if !buckets[0].Start.Before(buckets[1].Start) {
		t.Error("buckets not ascending by start")
	}
	if buckets[1].Entries != 5 || buckets[1].Exits != 4 {
		t.Errorf("expected 12:00 bucket to sum 5/4, got %d/%d",
			buckets[1].Entries, buckets[1].Exits)
	}
}

func TestBucketize_Empty(t *testing.T) {
	if got := Bucketize(nil, Hour); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestBucketizeRange_PicksGranularityFromPeriod(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	readings := []store.Reading{
		reading(start.Add(10*time.Minute), 1, 0),
		reading(start.Add(20*time.Minute), 1, 0),
	}

	buckets, g := BucketizeRange(readings, start, end)
	if g != FiveMinute {
		t.Errorf("expected FiveMinute for a 90 minute period, got %v", g)
	}
	if len(buckets) != 2 {
		t.Errorf("expected 2 buckets, got %d", len(buckets))
	}
}
