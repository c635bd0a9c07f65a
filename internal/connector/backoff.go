package connector

import (
	"math/rand"
	"time"
)

// Backoff computes jittered exponential reconnect delays. The zero value is
// not usable; construct with NewBackoff.
//
// Reconnect attempts continue until the connector is stopped; the backoff
// only bounds how fast they happen, growing from Min to Max and resetting
// after a successful connection.
type Backoff struct {
	Min      time.Duration
	Max      time.Duration
	NoJitter bool

	attempt int
}

// NewBackoff returns a Backoff with the given bounds, applying defaults for
// zero values (500ms min, 30s max).
func NewBackoff(min, max time.Duration) *Backoff {
	if min <= 0 {
		min = 500 * time.Millisecond
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if max < min {
		max = min
	}
	return &Backoff{Min: min, Max: max}
}

// Next returns the delay before the next attempt and advances the attempt
// counter.
func (b *Backoff) Next() time.Duration {
	d := b.Min << b.attempt
	if d > b.Max || d < b.Min { // d < Min catches shift overflow
		d = b.Max
	} else {
		b.attempt++
	}

	if b.NoJitter {
		return d
	}

	// Jitter in [0.75, 1.25) keeps reconnecting clients from synchronizing.
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}

// Reset restores the backoff to its minimum delay after a successful
// connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}
