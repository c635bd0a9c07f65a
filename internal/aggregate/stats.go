package aggregate

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/gabrielmt/hived/internal/store"
)

// Measurement names reported by MeasurementStats.
const (
	MeasureHumidityInternal    = "humidity_internal"
	MeasureHumidityExternal    = "humidity_external"
	MeasureTemperatureInternal = "temperature_internal"
	MeasureTemperatureExternal = "temperature_external"
	MeasureLuminosity          = "luminosity"
)

// MeasurementStats holds distribution statistics for one physical
// measurement over a reading set. Percentiles come from a DDSketch with 1%
// relative accuracy.
type MeasurementStats struct {
	Name  string
	Count int64
	Min   float64
	Max   float64
	Avg   float64
	P50   float64
	P90   float64
	P95   float64
	P99   float64
}

// measurementAccuracy is the DDSketch relative accuracy used for
// measurement percentiles.
const measurementAccuracy = 0.01

type statAccum struct {
	count  int64
	sum    float64
	min    float64
	max    float64
	sketch *ddsketch.DDSketch
}

func newStatAccum() *statAccum {
	a := &statAccum{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}
	// Sketch construction only fails for an out-of-range accuracy;
	// percentiles are simply omitted in that case.
	if sketch, err := ddsketch.NewDefaultDDSketch(measurementAccuracy); err == nil {
		a.sketch = sketch
	}
	return a
}

func (a *statAccum) add(v float64) {
	a.count++
	a.sum += v
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	if a.sketch != nil {
		a.sketch.Add(v)
	}
}

func (a *statAccum) result(name string) MeasurementStats {
	s := MeasurementStats{Name: name, Count: a.count}
	if a.count == 0 {
		return s
	}

	s.Min = a.min
	s.Max = a.max
	s.Avg = a.sum / float64(a.count)

	if a.sketch != nil {
		s.P50, _ = a.sketch.GetValueAtQuantile(0.50)
		s.P90, _ = a.sketch.GetValueAtQuantile(0.90)
		s.P95, _ = a.sketch.GetValueAtQuantile(0.95)
		s.P99, _ = a.sketch.GetValueAtQuantile(0.99)
	}

	return s
}

// ComputeMeasurementStats computes distribution statistics for every
// physical measurement over the reading set, in a fixed order. Empty input
// yields zero-count entries.
func ComputeMeasurementStats(readings []store.Reading) []MeasurementStats {
	accums := map[string]*statAccum{
		MeasureHumidityInternal:    newStatAccum(),
		MeasureHumidityExternal:    newStatAccum(),
		MeasureTemperatureInternal: newStatAccum(),
		MeasureTemperatureExternal: newStatAccum(),
		MeasureLuminosity:          newStatAccum(),
	}

	for _, r := range readings {
		accums[MeasureHumidityInternal].add(r.HumidityInternal)
		accums[MeasureHumidityExternal].add(r.HumidityExternal)
		accums[MeasureTemperatureInternal].add(r.TemperatureInternal)
		accums[MeasureTemperatureExternal].add(r.TemperatureExternal)
		accums[MeasureLuminosity].add(r.Luminosity)
	}

	order := []string{
		MeasureHumidityInternal,
		MeasureHumidityExternal,
		MeasureTemperatureInternal,
		MeasureTemperatureExternal,
		MeasureLuminosity,
	}

	out := make([]MeasurementStats, 0, len(order))
	for _, name := range order {
		out = append(out, accums[name].result(name))
	}
	return out
}
