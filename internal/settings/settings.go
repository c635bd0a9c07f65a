// Package settings persists the small set of user-tunable values that must
// survive restarts independently of the readings database. Today that is a
// single entry: the retention policy name.
//
// The backing file is a tiny JSON document written atomically (temp file +
// rename), so a crash mid-write leaves the previous value intact.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabrielmt/hived/internal/errors"
	"github.com/gabrielmt/hived/internal/logging"
)

var log = logging.Component("settings")

// Policy names recognized by the retention manager.
const (
	PolicyShort  = "short"  // 1 day
	PolicyMedium = "medium" // 7 days
	PolicyLong   = "long"   // 1 calendar month
)

// DefaultPolicy is used when no setting exists or the stored value is
// unrecognized.
const DefaultPolicy = PolicyMedium

// ValidPolicy reports whether name is one of the recognized policy names.
func ValidPolicy(name string) bool {
	switch name {
	case PolicyShort, PolicyMedium, PolicyLong:
		return true
	}
	return false
}

type fileFormat struct {
	Retention string `json:"retention"`
}

// Settings reads and writes the persisted settings file.
//
// Settings is safe for concurrent use.
type Settings struct {
	mu   sync.Mutex
	path string
}

// Open returns a Settings handle for the file at path. The file is created
// lazily on the first write; a missing file simply yields defaults.
func Open(path string) *Settings {
	return &Settings{path: path}
}

// Retention returns the persisted retention policy name. A missing or
// corrupt file falls back to DefaultPolicy without surfacing an error; so
// does a stored value outside the recognized set, which can happen after a
// downgrade or a hand-edited file.
func (s *Settings) Retention() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("read settings failed, using default", "path", s.path, "error", err)
		}
		return DefaultPolicy
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn("corrupt settings file, using default", "path", s.path, "error", err)
		return DefaultPolicy
	}

	if !ValidPolicy(f.Retention) {
		if f.Retention != "" {
			log.Warn("unrecognized retention setting, using default", "value", f.Retention)
		}
		return DefaultPolicy
	}

	return f.Retention
}

// SetRetention persists a retention policy name. Names outside the
// recognized set are rejected with ErrInvalidPolicy and nothing is written.
func (s *Settings) SetRetention(name string) error {
	if !ValidPolicy(name) {
		return errors.Wrapf(errors.ErrInvalidPolicy, "unknown policy %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileFormat{Retention: name}, "", "  ")
	if err != nil {
		return err
	}

	if err := writeAtomic(s.path, data); err != nil {
		return err
	}

	log.Info("retention setting saved", "policy", name)
	return nil
}

// writeAtomic writes data to path via a temp file and rename so readers
// never observe a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return werr
		}
		return cerr
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
