package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

// Provider is the capability surface instrumented code depends on. Exactly
// two implementations exist: Service (metrics enabled) and Disabled. The
// implementation is selected once at application wiring time and never
// swapped at runtime.
type Provider interface {
	// DefaultRegistry returns the registration surface for application
	// metrics. Repeated calls return the identical instance.
	DefaultRegistry() prom.Registerer
	// ToJSON serializes the current state of the registry to a
	// pretty-printed JSON document.
	ToJSON() (string, error)
}
