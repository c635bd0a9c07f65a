package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/gabrielmt/hived/internal/store"
)

func TestComputeMeasurementStats_Basics(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	readings := []store.Reading{
		{TemperatureInternal: 30, HumidityInternal: 50, Luminosity: 100, RecordedAt: base},
		{TemperatureInternal: 34, HumidityInternal: 60, Luminosity: 200, RecordedAt: base.Add(time.Minute)},
		{TemperatureInternal: 32, HumidityInternal: 70, Luminosity: 300, RecordedAt: base.Add(2 * time.Minute)},
	}

	stats := ComputeMeasurementStats(readings)
	if len(stats) != 5 {
		t.Fatalf("expected 5 measurement entries, got %d", len(stats))
	}

	byName := make(map[string]MeasurementStats, len(stats))
	for _, s := range stats {
		byName[s.Name] = s
	}

	temp := byName[MeasureTemperatureInternal]
	if temp.Count != 3 {
		t.Errorf("temperature count: expected 3, got %d", temp.Count)
	}
	if temp.Min != 30 || temp.Max != 34 {
		t.Errorf("temperature bounds: expected [30, 34], got [%v, %v]", temp.Min, temp.Max)
	}
	if math.Abs(temp.Avg-32) > 1e-9 {
		t.Errorf("temperature avg: expected 32, got %v", temp.Avg)
	}

	// DDSketch guarantees 1% relative accuracy; the median of
	// {50, 60, 70} must land close to 60.
	hum := byName[MeasureHumidityInternal]
	if math.Abs(hum.P50-60) > 60*0.02 {
		t.Errorf("humidity p50: expected ~60, got %v", hum.P50)
	}
	if hum.P99 < hum.P50 {
		t.Errorf("p99 %v below p50 %v", hum.P99, hum.P50)
	}
}

func TestComputeMeasurementStats_FixedOrder(t *testing.T) {
	expected := []string{
		MeasureHumidityInternal,
		MeasureHumidityExternal,
		MeasureTemperatureInternal,
		MeasureTemperatureExternal,
		MeasureLuminosity,
	}

	stats := ComputeMeasurementStats(nil)
	if len(stats) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(stats))
	}
	for i, s := range stats {
		if s.Name != expected[i] {
			t.Errorf("entry %d: expected %q, got %q", i, expected[i], s.Name)
		}
		if s.Count != 0 {
			t.Errorf("entry %q: expected zero count, got %d", s.Name, s.Count)
		}
	}
}
