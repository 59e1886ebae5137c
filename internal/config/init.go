package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init writes an example configuration file to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	runtime := true
	logCounts := true
	serverEnabled := true

	exampleConfig := Config{
		Metrics: MetricsConfig{
			Name:         DefaultRegistryName,
			RateUnit:     UnitSeconds,
			DurationUnit: UnitMilliseconds,
			ShowSamples:  false,
			Runtime:      &runtime,
			LogCounts:    &logCounts,
		},
		Server: ServerConfig{
			Enabled: &serverEnabled,
			Listen:  DefaultListen,
		},
		Export: ExportConfig{
			Enabled:      false,
			Interval:     DefaultInterval,
			Directory:    "./snapshots",
			Subject:      DefaultSubject,
			HistoryPath:  "./metricsd-history.db",
			HistoryLimit: DefaultHistoryLimit,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
