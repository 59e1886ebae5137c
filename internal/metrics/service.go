package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/metricsd/internal/config"
	"git.home.luguber.info/inful/metricsd/internal/logfields"
	"git.home.luguber.info/inful/metricsd/internal/registry"
)

// Lifecycle states. A service moves forward only: new -> started -> stopped.
const (
	stateNew int32 = iota
	stateStarted
	stateStopped
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("metrics service already started")
	// ErrAlreadyStopped is returned when Stop is called twice.
	ErrAlreadyStopped = errors.New("metrics service already stopped")
)

// Service is the enabled metrics facade. It owns the lifecycle of one named
// registry in the shared table: it resolves the registry at construction,
// wires runtime collectors and log instrumentation into it at Start, and
// removes it from the table at Stop.
//
// Start runs exactly once, synchronously, before the application serves
// traffic; all registration happens before any concurrent access exists.
// Concurrent metric updates after that are the registry's own guarantee.
type Service struct {
	cfg   config.MetricsConfig
	table *registry.Table
	reg   *prom.Registry
	enc   *snapshotEncoder
	state atomic.Int32
}

var _ Provider = (*Service)(nil)

// NewService resolves (or creates) the named registry from the table and
// returns an unstarted facade. The config must have passed validation.
func NewService(cfg config.MetricsConfig, table *registry.Table) *Service {
	return &Service{
		cfg:   cfg,
		table: table,
		reg:   table.GetOrCreate(cfg.Name),
		enc:   newSnapshotEncoder(cfg),
	}
}

// DefaultRegistry returns the registry this service owns. The instance is
// resolved once in NewService and stays identical for the life of the
// service, including after Stop; the facade never re-creates an entry in
// the table behind the caller's back.
func (s *Service) DefaultRegistry() prom.Registerer { return s.reg }

// Gatherer exposes the registry for scrape handlers.
func (s *Service) Gatherer() prom.Gatherer { return s.reg }

// ToJSON serializes a point-in-time snapshot of the registry using the
// configured rate/duration units and sample-inclusion flag. It does not
// mutate the registry.
func (s *Service) ToJSON() (string, error) {
	return s.enc.Encode(s.reg)
}

// Start registers runtime collectors and log instrumentation. Metrics
// initialization is all-or-nothing: any registration failure aborts startup
// rather than degrading to a partially instrumented registry.
func (s *Service) Start() error {
	if !s.state.CompareAndSwap(stateNew, stateStarted) {
		if s.state.Load() == stateStopped {
			return ErrAlreadyStopped
		}
		return ErrAlreadyStarted
	}

	if s.cfg.RuntimeEnabled() {
		if err := registerRuntimeCollectors(s.reg); err != nil {
			return fmt.Errorf("register runtime collectors: %w", err)
		}
	}

	if s.cfg.LogCountsEnabled() {
		handler, err := InstrumentLogging(s.reg, slog.Default().Handler())
		if err != nil {
			return fmt.Errorf("instrument logging: %w", err)
		}
		slog.SetDefault(slog.New(handler))
	}

	slog.Debug("metrics facade started",
		logfields.Registry(s.cfg.Name),
		slog.Bool("runtime", s.cfg.RuntimeEnabled()),
		slog.Bool("log_counts", s.cfg.LogCountsEnabled()))
	return nil
}

// Stop removes the named registry from the shared table. It runs once on
// the shutdown path after request serving has ceased; removal of an absent
// entry is tolerated by the table itself.
func (s *Service) Stop() error {
	if !s.state.CompareAndSwap(stateStarted, stateStopped) {
		return ErrAlreadyStopped
	}
	s.table.Remove(s.cfg.Name)
	slog.Debug("metrics facade stopped", logfields.Registry(s.cfg.Name))
	return nil
}
