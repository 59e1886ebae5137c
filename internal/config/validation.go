package config

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel validation errors. Callers inspect these with errors.Is.
var (
	ErrInvalidTimeUnit = errors.New("invalid time unit")
	ErrInvalidInterval = errors.New("invalid export interval")
	ErrInvalidLogging  = errors.New("invalid logging configuration")
)

// Validate checks the complete configuration and normalizes time units to
// their canonical form. It fails fast: the first violation aborts, and the
// application must not construct a facade from a config that did not pass.
func Validate(cfg *Config) error {
	v := &validator{config: cfg}
	return v.validate()
}

// validator coordinates validation across configuration domains.
type validator struct {
	config *Config
}

func (v *validator) validate() error {
	if err := v.validateMetrics(); err != nil {
		return err
	}
	if err := v.validateExport(); err != nil {
		return err
	}
	return v.validateLogging()
}

func (v *validator) validateMetrics() error {
	m := &v.config.Metrics

	if m.Name == "" {
		return errors.New("metrics registry name cannot be empty")
	}

	rate, err := ParseTimeUnit(string(m.RateUnit))
	if err != nil {
		return fmt.Errorf("metrics.rate_unit: %w", err)
	}
	m.RateUnit = rate

	duration, err := ParseTimeUnit(string(m.DurationUnit))
	if err != nil {
		return fmt.Errorf("metrics.duration_unit: %w", err)
	}
	m.DurationUnit = duration

	return nil
}

func (v *validator) validateExport() error {
	e := &v.config.Export
	if !e.Enabled {
		return nil
	}

	d, err := time.ParseDuration(e.Interval)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidInterval, e.Interval, err)
	}
	if d < time.Second {
		return fmt.Errorf("%w: %q is below 1s", ErrInvalidInterval, e.Interval)
	}

	if e.NATSURL != "" && e.Subject == "" {
		return errors.New("export.subject is required when export.nats_url is set")
	}
	if e.HistoryLimit < 0 {
		return fmt.Errorf("export.history_limit cannot be negative: %d", e.HistoryLimit)
	}
	if e.Directory == "" && e.NATSURL == "" && e.HistoryPath == "" {
		return errors.New("export is enabled but no sink is configured (directory, nats_url or history_path)")
	}

	return nil
}

func (v *validator) validateLogging() error {
	l := v.config.Logging
	if !validLogLevel(l.Level) {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidLogging, l.Level)
	}
	if !validLogFormat(l.Format) {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidLogging, l.Format)
	}
	return nil
}
