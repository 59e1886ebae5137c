// Package daemon wires the metrics facade, snapshot exporter, admin server
// and config watcher into one long-running service.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/metricsd/internal/config"
	"git.home.luguber.info/inful/metricsd/internal/export"
	"git.home.luguber.info/inful/metricsd/internal/history"
	"git.home.luguber.info/inful/metricsd/internal/logfields"
	"git.home.luguber.info/inful/metricsd/internal/metrics"
	"git.home.luguber.info/inful/metricsd/internal/registry"
	"git.home.luguber.info/inful/metricsd/internal/server"
	"git.home.luguber.info/inful/metricsd/internal/watcher"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon is the main service.
type Daemon struct {
	config         *config.Config
	configFilePath string
	status         atomic.Value // Status
	startTime      time.Time
	stopChan       chan struct{}
	stopOnce       sync.Once
	mu             sync.RWMutex

	// Core components
	table         *registry.Table
	facade        metrics.Provider
	service       *metrics.Service // nil when the facade is disabled
	store         *history.Store
	natsPublisher *export.NATSPublisher
	exporter      *export.Exporter
	httpServer    *server.Server
	configWatcher *watcher.ConfigWatcher

	// level is the live handler level the config watcher may adjust.
	level *slog.LevelVar
}

// NewDaemon creates a new daemon instance.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	return NewDaemonWithConfigFile(cfg, "", nil)
}

// NewDaemonWithConfigFile creates a daemon that watches configFilePath for
// changes. level may be nil when no watcher is wanted.
func NewDaemonWithConfigFile(cfg *config.Config, configFilePath string, level *slog.LevelVar) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	d := &Daemon{
		config:         cfg,
		configFilePath: configFilePath,
		stopChan:       make(chan struct{}),
		table:          registry.NewTable(),
		level:          level,
	}
	d.status.Store(StatusStopped)

	// Select the facade once. A disabled facade stays disabled for the
	// lifetime of the process.
	if cfg.Metrics.MetricsEnabled() {
		d.service = metrics.NewService(cfg.Metrics, d.table)
		d.facade = d.service
	} else {
		d.facade = metrics.Disabled{}
	}

	// Snapshot history store.
	if cfg.Export.HistoryPath != "" {
		store, err := history.Open(cfg.Export.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot history: %w", err)
		}
		d.store = store
	}

	// Admin HTTP server.
	if cfg.Server.ServerEnabled() {
		d.httpServer = server.New(cfg.Server.Listen, d.facade, d.serviceGatherer(), d.store)
	}

	// Config watcher.
	if configFilePath != "" && level != nil {
		cw, err := watcher.New(configFilePath, cfg, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create config watcher: %w", err)
		}
		d.configWatcher = cw
	}

	return d, nil
}

// Start starts the daemon and all its components, then blocks until the
// context is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}

	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	slog.Info("Starting metricsd daemon", logfields.Registry(d.config.Metrics.Name))

	if d.service != nil {
		if err := d.service.Start(); err != nil {
			d.status.Store(StatusError)
			d.mu.Unlock()
			return fmt.Errorf("failed to start metrics facade: %w", err)
		}
	} else {
		slog.Info("Metrics facade disabled; registrations will be discarded")
	}

	if err := d.startExporter(); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return err
	}

	if d.httpServer != nil {
		if err := d.httpServer.Start(ctx); err != nil {
			d.status.Store(StatusError)
			d.mu.Unlock()
			return fmt.Errorf("failed to start admin server: %w", err)
		}
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("Metricsd daemon started",
		logfields.Registry(d.config.Metrics.Name),
		logfields.Listen(d.config.Server.Listen))

	// Release lock before entering the long-running loop so status queries
	// are not blocked.
	d.mu.Unlock()

	d.mainLoop(ctx)

	d.status.Store(StatusStopping)
	slog.Info("Main loop exited, daemon stopping")

	return nil
}

// startExporter builds and starts the snapshot exporter when export is
// enabled. Must be called with d.mu held.
func (d *Daemon) startExporter() error {
	if !d.config.Export.Enabled {
		return nil
	}

	interval, err := d.config.Export.IntervalDuration()
	if err != nil {
		return fmt.Errorf("invalid export interval: %w", err)
	}

	var publisher export.Publisher
	if d.config.Export.NATSURL != "" {
		pub, err := export.ConnectNATS(d.config.Export.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect snapshot publisher: %w", err)
		}
		d.natsPublisher = pub
		publisher = pub
	}

	exp, err := export.New(d.facade, d.config.Metrics.Name, export.Options{
		Interval:     interval,
		Directory:    d.config.Export.Directory,
		Subject:      d.config.Export.Subject,
		HistoryLimit: d.config.Export.HistoryLimit,
	}, publisher, d.store)
	if err != nil {
		return fmt.Errorf("failed to create snapshot exporter: %w", err)
	}
	d.exporter = exp

	return d.exporter.Start(context.Background())
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	currentStatus := d.GetStatus()
	if currentStatus == StatusStopped {
		return nil
	}

	d.status.Store(StatusStopping)
	slog.Info("Stopping metricsd daemon")

	d.stopOnce.Do(func() { close(d.stopChan) })

	// Stop components in reverse order.
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}

	if d.httpServer != nil {
		if err := d.httpServer.Stop(ctx); err != nil {
			slog.Error("Failed to stop admin server", logfields.Error(err))
		}
	}

	if d.exporter != nil {
		if err := d.exporter.Stop(ctx); err != nil {
			slog.Error("Failed to stop snapshot exporter", logfields.Error(err))
		}
	}

	if d.natsPublisher != nil {
		d.natsPublisher.Close()
	}

	if d.service != nil {
		if err := d.service.Stop(); err != nil {
			slog.Error("Failed to stop metrics facade", logfields.Error(err))
		}
	}

	if d.store != nil {
		if err := d.store.Close(); err != nil {
			slog.Error("Failed to close snapshot history", logfields.Error(err))
		}
	}

	d.status.Store(StatusStopped)

	uptime := time.Since(d.startTime)
	slog.Info("Metricsd daemon stopped", slog.Duration("uptime", uptime))

	return nil
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns the daemon start time.
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}

// Facade returns the metrics facade, real or disabled.
func (d *Daemon) Facade() metrics.Provider {
	return d.facade
}

// GetConfig returns the configuration the daemon started with.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// serviceGatherer returns the scrape gatherer, or nil for the disabled
// facade so the admin server skips the /metrics route.
func (d *Daemon) serviceGatherer() prom.Gatherer {
	if d.service != nil {
		return d.service.Gatherer()
	}
	return nil
}

// mainLoop blocks until shutdown, logging a periodic heartbeat.
func (d *Daemon) mainLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Main loop stopped by context cancellation")
			return
		case <-d.stopChan:
			slog.Info("Main loop stopped by stop signal")
			return
		case <-ticker.C:
			slog.Debug("Daemon heartbeat",
				slog.Duration("uptime", time.Since(d.startTime)),
				slog.String("status", string(d.GetStatus())))
		}
	}
}
