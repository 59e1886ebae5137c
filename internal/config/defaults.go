package config

// Default values applied before validation.
const (
	DefaultRegistryName = "app"
	DefaultListen       = ":9090"
	DefaultInterval     = "1m"
	DefaultSubject      = "metrics.snapshots"
	DefaultHistoryLimit = 100
)

// applyDefaults fills unset fields so a minimal config file is usable.
func applyDefaults(cfg *Config) {
	if cfg.Metrics.Name == "" {
		cfg.Metrics.Name = DefaultRegistryName
	}
	if cfg.Metrics.RateUnit == "" {
		cfg.Metrics.RateUnit = UnitSeconds
	}
	if cfg.Metrics.DurationUnit == "" {
		cfg.Metrics.DurationUnit = UnitMilliseconds
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}

	if cfg.Export.Interval == "" {
		cfg.Export.Interval = DefaultInterval
	}
	if cfg.Export.Subject == "" {
		cfg.Export.Subject = DefaultSubject
	}
	if cfg.Export.HistoryLimit == 0 {
		cfg.Export.HistoryLimit = DefaultHistoryLimit
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
