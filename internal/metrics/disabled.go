package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

// Disabled satisfies Provider while discarding all registrations. It lets
// instrumented call sites register metrics unconditionally without
// branching on whether metrics are enabled. It reads no configuration and
// has no lifecycle.
type Disabled struct{}

var _ Provider = Disabled{}

// DefaultRegistry returns a registerer whose operations are all no-ops.
func (Disabled) DefaultRegistry() prom.Registerer { return discardRegisterer{} }

// ToJSON returns the literal string "null" unconditionally.
func (Disabled) ToJSON() (string, error) { return "null", nil }

// discardRegisterer accepts and forgets every registration. It has no
// invariants to violate, so no operation can fail.
type discardRegisterer struct{}

var _ prom.Registerer = discardRegisterer{}

func (discardRegisterer) Register(prom.Collector) error  { return nil }
func (discardRegisterer) MustRegister(...prom.Collector) {}
func (discardRegisterer) Unregister(prom.Collector) bool { return true }
