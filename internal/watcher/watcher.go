// Package watcher monitors the configuration file and applies the subset of
// changes that are safe at runtime. Only the logging level is applied live;
// the facade's registry wiring is fixed at startup, so metrics, server and
// export changes require a restart.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/metricsd/internal/config"
	"git.home.luguber.info/inful/metricsd/internal/logfields"
)

// ConfigWatcher monitors a configuration file for changes.
type ConfigWatcher struct {
	configPath   string
	current      *config.Config
	level        *slog.LevelVar
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// New creates a watcher for configPath. level is the live handler level the
// watcher may adjust; current is the config the process started with.
func New(configPath string, current *config.Config, level *slog.LevelVar) (*ConfigWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching.
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return &ConfigWatcher{
		configPath:   absPath,
		current:      current,
		level:        level,
		watcher:      fsw,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second, // debounce rapid file changes
	}, nil
}

// Start begins monitoring the configuration file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Watch the directory containing the config file; watching the file
	// itself breaks across editors that replace-on-save.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", configDir, err)
	}

	slog.Info("Starting configuration watcher", logfields.Path(cw.configPath))

	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop stops the configuration watcher.
func (cw *ConfigWatcher) Stop(ctx context.Context) error {
	slog.Info("Stopping configuration watcher")
	close(cw.stopChan)
	if err := cw.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", logfields.Error(err))
	}
	return nil
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != cw.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Coalesce: a pending reload absorbs further events.
			select {
			case cw.reloadChan <- struct{}{}:
			default:
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case <-cw.reloadChan:
			select {
			case <-time.After(cw.debounceTime):
			case <-cw.stopChan:
				return
			case <-ctx.Done():
				return
			}
			cw.reload()
		}
	}
}

func (cw *ConfigWatcher) reload() {
	cfg, err := config.Load(cw.configPath)
	if err != nil {
		slog.Warn("Ignoring config change: reload failed", logfields.Error(err))
		return
	}
	cw.apply(cfg)
}

// apply carries over the runtime-adjustable settings and reports the rest.
func (cw *ConfigWatcher) apply(cfg *config.Config) {
	old := cw.current

	if cfg.Logging.Level != old.Logging.Level {
		cw.level.Set(cfg.Logging.Level.SlogLevel())
		slog.Info("Applied logging level from config change",
			logfields.Level(string(cfg.Logging.Level)))
	}

	if !staticEqual(cfg, old) {
		slog.Warn("Config change affects metrics, server or export settings; restart required to apply")
	}

	cw.current = cfg
}

// staticEqual compares the settings that are fixed at startup. The enable
// flags are pointers, so the structs are compared by effective value.
func staticEqual(a, b *config.Config) bool {
	return a.Metrics.MetricsEnabled() == b.Metrics.MetricsEnabled() &&
		a.Metrics.Name == b.Metrics.Name &&
		a.Metrics.RateUnit == b.Metrics.RateUnit &&
		a.Metrics.DurationUnit == b.Metrics.DurationUnit &&
		a.Metrics.ShowSamples == b.Metrics.ShowSamples &&
		a.Metrics.RuntimeEnabled() == b.Metrics.RuntimeEnabled() &&
		a.Metrics.LogCountsEnabled() == b.Metrics.LogCountsEnabled() &&
		a.Server.ServerEnabled() == b.Server.ServerEnabled() &&
		a.Server.Listen == b.Server.Listen &&
		a.Export == b.Export
}
