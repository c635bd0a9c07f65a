// Package aggregate converts raw readings into chart-ready time buckets and
// summary statistics.
//
// The bucket width (granularity) is chosen adaptively from the query span,
// each reading is truncated down to its bucket boundary, and buckets are
// emitted in ascending order. Buckets with zero readings are never
// synthesized: only boundaries with at least one observation appear, and the
// label generator assumes that dense observed-bucket list.
package aggregate

import (
	"sort"
	"time"

	"github.com/gabrielmt/hived/internal/store"
)

// Granularity is the width of an aggregation bucket.
type Granularity int

const (
	FiveMinute Granularity = iota
	Hour
	Day
	Week
	Month
)

// String returns the granularity name.
func (g Granularity) String() string {
	switch g {
	case FiveMinute:
		return "5m"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "unknown"
	}
}

// SelectGranularity picks a bucket width from the elapsed span, smallest
// first, first match wins.
func SelectGranularity(start, end time.Time) Granularity {
	span := end.Sub(start)
	hours := span.Hours()
	days := hours / 24
	years := days / 365.25

	switch {
	case hours < 2:
		return FiveMinute
	case days <= 2:
		return Hour
	case days <= 90:
		return Day
	case years <= 2:
		return Week
	default:
		return Month
	}
}

// Truncate computes the bucket-start instant for t at the given granularity,
// in t's location. Week buckets start on Sunday.
func Truncate(t time.Time, g Granularity) time.Time {
	y, mo, d := t.Date()
	loc := t.Location()

	switch g {
	case FiveMinute:
		minute := (t.Minute() / 5) * 5
		return time.Date(y, mo, d, t.Hour(), minute, 0, 0, loc)
	case Hour:
		return time.Date(y, mo, d, t.Hour(), 0, 0, 0, loc)
	case Day:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case Week:
		return time.Date(y, mo, d-int(t.Weekday()), 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	}
}

// Bucket is one fixed-width interval of summed activity. Count is the number
// of readings grouped into the bucket.
type Bucket struct {
	Start   time.Time
	Entries int
	Exits   int
	Count   int
}

// Bucketize groups readings into buckets of the given granularity, summing
// activity counters per bucket, and returns the buckets ascending by start.
func Bucketize(readings []store.Reading, g Granularity) []Bucket {
	if len(readings) == 0 {
		return nil
	}

	grouped := make(map[int64]*Bucket)
	for _, r := range readings {
		start := Truncate(r.RecordedAt, g)
		key := start.UnixNano()

		b, ok := grouped[key]
		if !ok {
			b = &Bucket{Start: start}
			grouped[key] = b
		}
		b.Entries += r.EntriesCount
		b.Exits += r.ExitsCount
		b.Count++
	}

	buckets := make([]Bucket, 0, len(grouped))
	for _, b := range grouped {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})

	return buckets
}

// BucketizeRange selects a granularity from the period bounds and buckets
// the readings with it.
func BucketizeRange(readings []store.Reading, periodStart, periodEnd time.Time) ([]Bucket, Granularity) {
	g := SelectGranularity(periodStart, periodEnd)
	return Bucketize(readings, g), g
}
