package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabrielmt/hived/internal/store"
)

func sampleReadings(n int) []store.Reading {
	base := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	readings := make([]store.Reading, n)
	for i := range readings {
		readings[i] = store.Reading{
			ID:                  int64(i + 1),
			EntriesCount:        i * 2,
			ExitsCount:          i,
			HumidityInternal:    55.5,
			HumidityExternal:    60.1,
			TemperatureInternal: 34.2,
			TemperatureExternal: 28.9,
			Luminosity:          812.5,
			RecordedAt:          base.Add(time.Duration(i) * time.Hour),
		}
	}
	return readings
}

func TestWriteSweep_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	cutoff := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	readings := sampleReadings(10)

	path, err := WriteSweep(DefaultOptions(dir), cutoff, readings)
	if err != nil {
		t.Fatalf("write sweep: %v", err)
	}
	if filepath.Base(path) != "2026-08-05_00-00-00.parquet" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(got) != len(readings) {
		t.Fatalf("expected %d readings, got %d", len(readings), len(got))
	}
	for i, r := range got {
		want := readings[i]
		if r.ID != want.ID || r.EntriesCount != want.EntriesCount || r.ExitsCount != want.ExitsCount {
			t.Errorf("row %d: got %+v, want %+v", i, r, want)
		}
		if !r.RecordedAt.Equal(want.RecordedAt) {
			t.Errorf("row %d timestamp: got %v, want %v", i, r.RecordedAt, want.RecordedAt)
		}
		if r.TemperatureInternal != want.TemperatureInternal {
			t.Errorf("row %d temperature: got %v, want %v", i, r.TemperatureInternal, want.TemperatureInternal)
		}
	}
}

func TestWriteSweep_EmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteSweep(DefaultOptions(dir), time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
}

func TestWriteSweep_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "archive")

	path, err := WriteSweep(DefaultOptions(dir), time.Now(), sampleReadings(1))
	if err != nil {
		t.Fatalf("write sweep: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("archive file missing: %v", err)
	}
}

func TestWriteSweep_Compressions(t *testing.T) {
	readings := sampleReadings(5)
	cutoff := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)

	for _, ct := range []CompressionType{CompressionNone, CompressionSnappy, CompressionZstd, CompressionGzip} {
		opts := Options{Dir: t.TempDir(), Compression: ct}
		path, err := WriteSweep(opts, cutoff, readings)
		if err != nil {
			t.Fatalf("compression %d: write: %v", ct, err)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("compression %d: read: %v", ct, err)
		}
		if len(got) != len(readings) {
			t.Errorf("compression %d: expected %d readings, got %d", ct, len(readings), len(got))
		}
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		in       string
		expected CompressionType
	}{
		{"snappy", CompressionSnappy},
		{"gzip", CompressionGzip},
		{"none", CompressionNone},
		{"zstd", CompressionZstd},
		{"", CompressionZstd},
		{"bogus", CompressionZstd},
	}

	for _, tt := range tests {
		if got := ParseCompressionType(tt.in); got != tt.expected {
			t.Errorf("%q: expected %d, got %d", tt.in, tt.expected, got)
		}
	}
}
