package connector

import (
	"encoding/json"
	"time"

	"github.com/gabrielmt/hived/internal/errors"
	"github.com/gabrielmt/hived/internal/store"
)

// wirePayload is the upstream message schema. Field names are camelCase and
// only camelCase: snake_case variants are not resolved, so a producer using
// the wrong casing produces a validation failure, not a silently half-empty
// reading.
type wirePayload struct {
	EntriesCount        *int     `json:"entriesCount"`
	ExitsCount          *int     `json:"exitsCount"`
	HumidityInternal    *float64 `json:"humidityInternal"`
	HumidityExternal    *float64 `json:"humidityExternal"`
	TemperatureInternal *float64 `json:"temperatureInternal"`
	TemperatureExternal *float64 `json:"temperatureExternal"`
	Luminosity          *float64 `json:"luminosity"`
	Timestamp           string   `json:"timestamp"`
}

// timestampLayouts are the accepted ISO-8601 shapes, tried in order. A
// zoneless timestamp is taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(errors.ErrDecode, "unparseable timestamp %q", s)
}

// Decode parses one upstream payload into a Reading. Any failure wraps
// ErrDecode; the caller drops the message and keeps ingesting.
func Decode(payload []byte) (store.Reading, error) {
	var w wirePayload
	if err := json.Unmarshal(payload, &w); err != nil {
		return store.Reading{}, errors.Wrapf(errors.ErrDecode, "parse json: %v", err)
	}

	if w.EntriesCount == nil || w.ExitsCount == nil {
		return store.Reading{}, errors.Wrap(errors.ErrDecode, "missing activity counters")
	}
	if w.HumidityInternal == nil || w.HumidityExternal == nil ||
		w.TemperatureInternal == nil || w.TemperatureExternal == nil ||
		w.Luminosity == nil {
		return store.Reading{}, errors.Wrap(errors.ErrDecode, "missing measurement fields")
	}
	if w.Timestamp == "" {
		return store.Reading{}, errors.Wrap(errors.ErrDecode, "missing timestamp")
	}

	ts, err := parseTimestamp(w.Timestamp)
	if err != nil {
		return store.Reading{}, err
	}

	r := store.Reading{
		EntriesCount:        *w.EntriesCount,
		ExitsCount:          *w.ExitsCount,
		HumidityInternal:    *w.HumidityInternal,
		HumidityExternal:    *w.HumidityExternal,
		TemperatureInternal: *w.TemperatureInternal,
		TemperatureExternal: *w.TemperatureExternal,
		Luminosity:          *w.Luminosity,
		RecordedAt:          ts,
	}

	if err := r.Validate(); err != nil {
		return store.Reading{}, errors.Wrapf(errors.ErrDecode, "invalid reading: %v", err)
	}

	return r, nil
}
