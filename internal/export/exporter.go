// Package export periodically captures JSON snapshots of the metrics
// registry and fans them out to the configured sinks: a directory of JSON
// files, a NATS subject, and the SQLite history store.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/metricsd/internal/history"
	"git.home.luguber.info/inful/metricsd/internal/logfields"
	"git.home.luguber.info/inful/metricsd/internal/metrics"
)

// Publisher delivers a snapshot document to a messaging subject. *NATSPublisher
// implements it; tests substitute fakes.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Options configures the exporter. Zero-value sinks are skipped.
type Options struct {
	Interval     time.Duration
	Directory    string
	Subject      string
	HistoryLimit int
}

// Exporter runs a periodic snapshot job. Tick failures are logged and the
// next tick proceeds; export is telemetry, not a critical path.
type Exporter struct {
	provider  metrics.Provider
	registry  string
	opts      Options
	publisher Publisher
	store     *history.Store
	scheduler gocron.Scheduler
}

// New creates an exporter for provider's registry. publisher and store may
// be nil; the corresponding sinks are skipped.
func New(provider metrics.Provider, registryName string, opts Options, publisher Publisher, store *history.Store) (*Exporter, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Exporter{
		provider:  provider,
		registry:  registryName,
		opts:      opts,
		publisher: publisher,
		store:     store,
		scheduler: scheduler,
	}, nil
}

// Start schedules the periodic export and begins the scheduler.
func (e *Exporter) Start(ctx context.Context) error {
	_, err := e.scheduler.NewJob(
		gocron.DurationJob(e.opts.Interval),
		gocron.NewTask(e.tick),
		gocron.WithName("snapshot-export"),
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot export job: %w", err)
	}

	slog.Info("Starting snapshot exporter",
		logfields.Registry(e.registry),
		logfields.Interval(e.opts.Interval.String()))
	e.scheduler.Start()
	return nil
}

// Stop gracefully shuts down the scheduler.
func (e *Exporter) Stop(ctx context.Context) error {
	slog.Info("Stopping snapshot exporter", logfields.Registry(e.registry))
	return e.scheduler.Shutdown()
}

func (e *Exporter) tick() {
	snap, err := e.ExportOnce(context.Background())
	if err != nil {
		slog.Error("Snapshot export failed", logfields.Registry(e.registry), logfields.Error(err))
		return
	}
	slog.Debug("Snapshot exported", logfields.SnapshotID(snap.ID))
}

// ExportOnce captures one snapshot and delivers it to every configured sink.
// The first sink failure aborts the remaining ones for this tick.
func (e *Exporter) ExportOnce(ctx context.Context) (history.Snapshot, error) {
	body, err := e.provider.ToJSON()
	if err != nil {
		return history.Snapshot{}, fmt.Errorf("capture snapshot: %w", err)
	}

	snap := history.Snapshot{
		ID:        uuid.NewString(),
		Registry:  e.registry,
		CreatedAt: time.Now(),
		Body:      body,
	}

	if e.opts.Directory != "" {
		if err := e.writeFile(snap); err != nil {
			return snap, err
		}
	}

	if e.publisher != nil && e.opts.Subject != "" {
		if err := e.publisher.Publish(e.opts.Subject, []byte(snap.Body)); err != nil {
			return snap, fmt.Errorf("publish snapshot: %w", err)
		}
	}

	if e.store != nil {
		if err := e.store.Append(ctx, snap); err != nil {
			return snap, err
		}
		if err := e.store.Prune(ctx, e.opts.HistoryLimit); err != nil {
			return snap, err
		}
	}

	return snap, nil
}

func (e *Exporter) writeFile(snap history.Snapshot) error {
	if err := os.MkdirAll(e.opts.Directory, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	path := filepath.Join(e.opts.Directory, fmt.Sprintf("%s-%s.json", snap.Registry, snap.ID))
	if err := os.WriteFile(path, []byte(snap.Body), 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}
