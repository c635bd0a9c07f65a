// Package loader handles configuration file loading, validation and
// defaults for the hived daemon.
//
// Configuration is YAML with environment variable expansion, so secrets and
// per-host values can come from the environment:
//
//	broker:
//	  url: ssl://${HIVE_BROKER_HOST}:8883
//	  topic: hive/sensors
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gabrielmt/hived/internal/errors"
)

// Config is the daemon configuration tree.
type Config struct {
	// DataDir is the root for the database, settings file and archives.
	DataDir string `yaml:"data_dir"`

	Log       LogConfig       `yaml:"log"`
	Broker    BrokerConfig    `yaml:"broker"`
	Database  DatabaseConfig  `yaml:"database"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// BrokerConfig describes the upstream MQTT feed.
type BrokerConfig struct {
	URL          string `yaml:"url"`
	Topic        string `yaml:"topic"`
	ClientID     string `yaml:"client_id"`
	QoS          int    `yaml:"qos"`
	KeepAliveSec int    `yaml:"keepalive_sec"`

	// Reconnect backoff bounds in milliseconds.
	BackoffMinMs int `yaml:"backoff_min_ms"`
	BackoffMaxMs int `yaml:"backoff_max_ms"`
}

// DatabaseConfig describes the readings database.
type DatabaseConfig struct {
	// Path overrides the default <data_dir>/hive.db location.
	Path string `yaml:"path"`
}

// ArchiveConfig controls Parquet archiving of swept readings.
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
}

// SchedulerConfig controls the maintenance cycle.
type SchedulerConfig struct {
	IntervalHours int `yaml:"interval_hours"`
}

// NotifyConfig controls outbound notifications.
type NotifyConfig struct {
	// IngestIntervalSec throttles "new data" notifications; 0 disables.
	IngestIntervalSec int `yaml:"ingest_interval_sec"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Log: LogConfig{
			Level: "info",
		},
		Broker: BrokerConfig{
			URL:          "ssl://broker.hivemq.com:8883",
			Topic:        "hive/sensors",
			QoS:          2,
			KeepAliveSec: 60,
			BackoffMinMs: 500,
			BackoffMaxMs: 30000,
		},
		Archive: ArchiveConfig{
			Compression: "zstd",
		},
		Scheduler: SchedulerConfig{
			IntervalHours: 24,
		},
		Notify: NotifyConfig{
			IngestIntervalSec: 300,
		},
	}
}

// Load loads configuration from a YAML file, starting from defaults and
// expanding environment variables in the file body.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	if c.Broker.URL == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "broker.url is required")
	}
	if c.Broker.Topic == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "broker.topic is required")
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > 2 {
		return errors.Wrapf(errors.ErrInvalidConfig, "broker.qos %d out of range", c.Broker.QoS)
	}
	if c.Scheduler.IntervalHours < 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "scheduler.interval_hours must not be negative")
	}
	return nil
}

// DatabasePath returns the resolved readings database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.DataDir, "hive.db")
}

// SettingsPath returns the resolved settings file path.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// ArchiveDir returns the resolved archive directory.
func (c *Config) ArchiveDir() string {
	if c.Archive.Dir != "" {
		return c.Archive.Dir
	}
	return filepath.Join(c.DataDir, "archive")
}

// SchedulerInterval returns the maintenance interval as a duration.
func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalHours) * time.Hour
}

// KeepAlive returns the MQTT keepalive as a duration.
func (c *Config) KeepAlive() time.Duration {
	return time.Duration(c.Broker.KeepAliveSec) * time.Second
}
