package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrNilHandler is returned when there is no base handler to wrap.
	ErrNilHandler = errors.New("logging backend has no handler to instrument")
	// ErrAlreadyInstrumented is returned when the base handler is already
	// counting log events; wrapping twice would double every count.
	ErrAlreadyInstrumented = errors.New("logging backend is already instrumented")
)

// CountingHandler is a slog.Handler middleware that increments a per-level
// counter for every record before delegating to the wrapped handler.
type CountingHandler struct {
	next   slog.Handler
	events *prom.CounterVec
}

var _ slog.Handler = (*CountingHandler)(nil)

// InstrumentLogging registers a log-event counter in reg and returns a
// handler that wraps base. It checks the capability explicitly instead of
// assuming the backend's concrete type: a nil or already-wrapped base is a
// configuration error surfaced to the caller, who treats it as fatal at
// startup.
func InstrumentLogging(reg prom.Registerer, base slog.Handler) (*CountingHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	if _, ok := base.(*CountingHandler); ok {
		return nil, ErrAlreadyInstrumented
	}

	events := prom.NewCounterVec(prom.CounterOpts{
		Name: "log_events_total",
		Help: "Log records emitted, by level",
	}, []string{"level"})
	if err := reg.Register(events); err != nil {
		return nil, fmt.Errorf("register log event counter: %w", err)
	}

	// Pre-create the level series so a quiet process still reports zeros.
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		events.WithLabelValues(level.String())
	}

	return &CountingHandler{next: base, events: events}, nil
}

func (h *CountingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *CountingHandler) Handle(ctx context.Context, record slog.Record) error {
	h.events.WithLabelValues(record.Level.String()).Inc()
	return h.next.Handle(ctx, record)
}

func (h *CountingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CountingHandler{next: h.next.WithAttrs(attrs), events: h.events}
}

func (h *CountingHandler) WithGroup(name string) slog.Handler {
	return &CountingHandler{next: h.next.WithGroup(name), events: h.events}
}
