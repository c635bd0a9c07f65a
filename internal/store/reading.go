package store

import (
	"time"

	"github.com/gabrielmt/hived/internal/errors"
)

// Reading is one sensor observation from the hive.
//
// Readings are append-only: once inserted they are never updated, and they
// are deleted only by retention sweeps. RecordedAt is caller-supplied and is
// the sole ordering and range-query key; it is not required to arrive in
// insertion order.
type Reading struct {
	// ID is assigned by the store on insert, monotonically increasing.
	ID int64

	// Activity counters.
	EntriesCount int
	ExitsCount   int

	// Physical measurements. No range is enforced; sensors can and do
	// report out-of-band values.
	HumidityInternal    float64
	HumidityExternal    float64
	TemperatureInternal float64
	TemperatureExternal float64
	Luminosity          float64

	// RecordedAt is the observation instant, second resolution or better.
	RecordedAt time.Time
}

// Activity returns the combined entry/exit count, the quantity the
// peak-activity computation maximizes.
func (r Reading) Activity() int {
	return r.EntriesCount + r.ExitsCount
}

// Validate checks that a reading is well-formed for insertion.
func (r Reading) Validate() error {
	if r.EntriesCount < 0 {
		return errors.Wrap(errors.ErrInvalidRecord, "negative entries count")
	}
	if r.ExitsCount < 0 {
		return errors.Wrap(errors.ErrInvalidRecord, "negative exits count")
	}
	if r.RecordedAt.IsZero() {
		return errors.Wrap(errors.ErrInvalidRecord, "zero timestamp")
	}
	return nil
}
