package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Server  ServerConfig  `yaml:"server"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig controls the metrics facade: which registry it owns and
// what gets wired into it at startup.
type MetricsConfig struct {
	// Enabled selects the real facade; false swaps in the no-op variant
	// that discards registrations and snapshots nothing.
	Enabled *bool `yaml:"enabled,omitempty"`
	// Name identifies the process-wide registry this service owns.
	Name string `yaml:"name"`
	// RateUnit and DurationUnit select the time granularity used when
	// encoding rate-based and duration-based metrics to JSON.
	RateUnit     TimeUnit `yaml:"rate_unit"`
	DurationUnit TimeUnit `yaml:"duration_unit"`
	// ShowSamples includes histogram buckets and summary quantiles in
	// JSON snapshots.
	ShowSamples bool `yaml:"show_samples"`
	// Runtime registers Go runtime, process and build-info collectors.
	Runtime *bool `yaml:"runtime,omitempty"`
	// LogCounts installs the log-event counting handler.
	LogCounts *bool `yaml:"log_counts,omitempty"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen"`
}

// ExportConfig configures the periodic snapshot exporter.
type ExportConfig struct {
	Enabled bool `yaml:"enabled"`
	// Interval is a Go duration string ("30s", "5m"). Parsed and checked
	// during validation.
	Interval string `yaml:"interval"`
	// Directory receives one JSON file per snapshot; empty disables the
	// file sink.
	Directory string `yaml:"directory,omitempty"`
	// NATSURL/Subject publish each snapshot to a NATS subject; empty URL
	// disables publishing.
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	// HistoryPath is the SQLite snapshot history database. Empty disables
	// history. ":memory:" is accepted for tests.
	HistoryPath  string `yaml:"history_path,omitempty"`
	HistoryLimit int    `yaml:"history_limit,omitempty"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsEnabled reports whether the real facade should be used (default true).
func (m MetricsConfig) MetricsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// RuntimeEnabled reports whether runtime collectors should be registered
// (default true).
func (m MetricsConfig) RuntimeEnabled() bool {
	return m.Runtime == nil || *m.Runtime
}

// LogCountsEnabled reports whether log-event counting should be installed
// (default true).
func (m MetricsConfig) LogCountsEnabled() bool {
	return m.LogCounts == nil || *m.LogCounts
}

// ServerEnabled reports whether the admin server should listen (default true).
func (s ServerConfig) ServerEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// IntervalDuration returns the parsed export interval. Validation guarantees
// the value parses, so errors here only occur on an unvalidated Config.
func (e ExportConfig) IntervalDuration() (time.Duration, error) {
	return time.ParseDuration(e.Interval)
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env/.env.local if present; existing process env wins.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses raw YAML configuration, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFiles attempts .env then .env.local, stopping at the first file
// that loads. Existing environment variables are never overwritten.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", path)
			return
		}
	}
}
