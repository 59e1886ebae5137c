// Package metrics is the application's metrics facade.
//
// The package exposes a two-operation capability interface, Provider:
// DefaultRegistry hands instrumented code a registration surface, ToJSON
// renders a point-in-time snapshot of the registry as pretty-printed JSON.
//
// Two implementations exist and are selected once at wiring time:
//
//   - Service owns a named registry resolved from an injected
//     registry.Table. Start wires runtime collectors and log-event
//     counting into it before the application serves traffic; Stop removes
//     the registry from the table on shutdown.
//   - Disabled discards every registration and reports "null". Call sites
//     register unconditionally and never branch on whether metrics are
//     enabled.
//
// Metric collection itself is prometheus/client_golang's job; this package
// is lifecycle and encoding glue around it.
package metrics
