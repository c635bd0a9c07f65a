package aggregate

import (
	"testing"
	"time"
)

func hourBuckets(n int) []Bucket {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i] = Bucket{Start: base.Add(time.Duration(i) * time.Hour)}
	}
	return buckets
}

func TestLabels_AllLabeledBelowMax(t *testing.T) {
	buckets := hourBuckets(4)
	labels := Labels(buckets, Hour, 6)

	if len(labels) != 4 {
		t.Fatalf("expected 4 labels, got %d", len(labels))
	}
	for i, l := range labels {
		if l == "" {
			t.Errorf("label %d unexpectedly blank", i)
		}
	}
	if labels[0] != "00:00" || labels[2] != "02:00" {
		t.Errorf("unexpected labels %v", labels)
	}
}

func TestLabels_ThinnedAboveMax(t *testing.T) {
	buckets := hourBuckets(20)
	maxLabels := 6
	labels := Labels(buckets, Hour, maxLabels)

	if len(labels) != len(buckets) {
		t.Fatalf("label slice must align with buckets: %d vs %d",
			len(labels), len(buckets))
	}

	// First and last are always labeled.
	if labels[0] == "" {
		t.Error("first label blank")
	}
	if labels[len(labels)-1] == "" {
		t.Error("last label blank")
	}

	// Every step-th is labeled, the rest blank.
	step := len(buckets) / maxLabels
	for i, l := range labels {
		first := i == 0
		last := i == len(labels)-1
		onStep := i%step == 0
		if (first || last || onStep) && l == "" {
			t.Errorf("label %d expected, got blank", i)
		}
		if !first && !last && !onStep && l != "" {
			t.Errorf("label %d expected blank, got %q", i, l)
		}
	}
}

func TestLabels_Empty(t *testing.T) {
	if got := Labels(nil, Hour, 6); got != nil {
		t.Errorf("expected nil for no buckets, got %v", got)
	}
}

func TestLabels_Formats(t *testing.T) {
	b := []Bucket{{Start: time.Date(2026, 8, 9, 14, 35, 0, 0, time.UTC)}}

	tests := []struct {
		g        Granularity
		expected string
	}{
		{FiveMinute, "14:35"},
		{Hour, "14:35"},
		{Day, "9 Aug"},
		{Week, "9 Aug"},
		{Month, "Aug 26"},
	}

	for _, tt := range tests {
		labels := Labels(b, tt.g, 6)
		if labels[0] != tt.expected {
			t.Errorf("%v: expected %q, got %q", tt.g, tt.expected, labels[0])
		}
	}
}
