// Package archive writes retention-expired readings to Parquet files so a
// sweep can preserve history outside the live database before deleting it.
// One file is written per sweep, named after the sweep cutoff.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/gabrielmt/hived/internal/store"
)

// Options configures the Parquet archive writer.
type Options struct {
	// Dir is the directory archive files are written into.
	Dir string

	// Compression algorithm.
	Compression CompressionType
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionGzip
)

// DefaultOptions returns default archive options.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:         dir,
		Compression: CompressionZstd,
	}
}

// ParseCompressionType parses a compression type string from config.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "gzip":
		return CompressionGzip
	case "none":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// ReadingRow represents a reading in Parquet format. Timestamps are stored
// as Unix milliseconds, matching the second-or-better resolution the store
// guarantees.
type ReadingRow struct {
	ID                  int64   `parquet:"id"`
	EntriesCount        int32   `parquet:"entries_count"`
	ExitsCount          int32   `parquet:"exits_count"`
	HumidityInternal    float64 `parquet:"humidity_internal"`
	HumidityExternal    float64 `parquet:"humidity_external"`
	TemperatureInternal float64 `parquet:"temperature_internal"`
	TemperatureExternal float64 `parquet:"temperature_external"`
	Luminosity          float64 `parquet:"luminosity"`
	RecordedAtMs        int64   `parquet:"recorded_at_ms"`
}

// ToRow converts a store.Reading to its Parquet representation.
func ToRow(r store.Reading) ReadingRow {
	return ReadingRow{
		ID:                  r.ID,
		EntriesCount:        int32(r.EntriesCount),
		ExitsCount:          int32(r.ExitsCount),
		HumidityInternal:    r.HumidityInternal,
		HumidityExternal:    r.HumidityExternal,
		TemperatureInternal: r.TemperatureInternal,
		TemperatureExternal: r.TemperatureExternal,
		Luminosity:          r.Luminosity,
		RecordedAtMs:        r.RecordedAt.UnixMilli(),
	}
}

// FromRow converts a Parquet row back to a store.Reading.
func FromRow(row ReadingRow) store.Reading {
	return store.Reading{
		ID:                  row.ID,
		EntriesCount:        int(row.EntriesCount),
		ExitsCount:          int(row.ExitsCount),
		HumidityInternal:    row.HumidityInternal,
		HumidityExternal:    row.HumidityExternal,
		TemperatureInternal: row.TemperatureInternal,
		TemperatureExternal: row.TemperatureExternal,
		Luminosity:          row.Luminosity,
		RecordedAt:          time.UnixMilli(row.RecordedAtMs).UTC(),
	}
}

// FileName returns the archive file name for a sweep with the given cutoff.
func FileName(cutoff time.Time) string {
	return cutoff.UTC().Format("2006-01-02_15-04-05") + ".parquet"
}

// WriteSweep writes the readings removed by one sweep to a Parquet file and
// returns its path. An empty slice writes nothing and returns "".
func WriteSweep(opts Options, cutoff time.Time, readings []store.Reading) (string, error) {
	if len(readings) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	path := filepath.Join(opts.Dir, FileName(cutoff))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	writer := parquet.NewGenericWriter[ReadingRow](f,
		parquet.Compression(getCompression(opts.Compression)))

	rows := make([]ReadingRow, len(readings))
	for i, r := range readings {
		rows[i] = ToRow(r)
	}

	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write archive rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("close archive writer: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close archive file: %w", err)
	}

	return path, nil
}

// ReadFile reads all readings from an archive file.
func ReadFile(path string) ([]store.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[ReadingRow](f)
	defer reader.Close()

	rows := make([]ReadingRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("read archive rows: %w", err)
	}

	readings := make([]store.Reading, n)
	for i := 0; i < n; i++ {
		readings[i] = FromRow(rows[i])
	}

	return readings, nil
}
