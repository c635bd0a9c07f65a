package connector

import (
	"testing"
	"time"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := NewBackoff(500*time.Millisecond, 30*time.Second)
	b.NoJitter = true

	expected := []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second, // stays capped
	}

	for i, want := range expected {
		if got := b.Next(); got != want {
			t.Errorf("attempt %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)
	b.NoJitter = true

	for i := 0; i < 5; i++ {
		b.Next()
	}
	b.Reset()

	if got := b.Next(); got != time.Second {
		t.Errorf("expected minimum after reset, got %v", got)
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	b := NewBackoff(10*time.Second, time.Minute)

	for i := 0; i < 100; i++ {
		b.Reset()
		d := b.Next()
		if d < 7500*time.Millisecond || d >= 12500*time.Millisecond {
			t.Fatalf("jittered delay %v outside [7.5s, 12.5s)", d)
		}
	}
}

func TestBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Min != 500*time.Millisecond {
		t.Errorf("default min: got %v", b.Min)
	}
	if b.Max != 30*time.Second {
		t.Errorf("default max: got %v", b.Max)
	}

	b = NewBackoff(time.Minute, time.Second)
	if b.Max != time.Minute {
		t.Errorf("max below min should clamp to min, got %v", b.Max)
	}
}
