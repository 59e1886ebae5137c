// Package registry provides an explicitly owned table of named Prometheus
// registries. The table replaces ambient global registry state: components
// that need a shared registry receive the table by reference and look their
// registry up by name.
package registry

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Table maps registry names to registry instances. At most one registry is
// associated with a given name at any time. Safe for concurrent use.
type Table struct {
	mu         sync.RWMutex
	registries map[string]*prom.Registry
}

// NewTable constructs an empty registry table.
func NewTable() *Table {
	return &Table{registries: make(map[string]*prom.Registry)}
}

// GetOrCreate returns the registry associated with name, creating it if
// absent. Repeated calls return the identical instance.
func (t *Table) GetOrCreate(name string) *prom.Registry {
	t.mu.RLock()
	reg, ok := t.registries[name]
	t.mu.RUnlock()
	if ok {
		return reg
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if reg, ok := t.registries[name]; ok {
		return reg
	}
	reg = prom.NewRegistry()
	t.registries[name] = reg
	return reg
}

// Get returns the registry for name if one exists.
func (t *Table) Get(name string) (*prom.Registry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	reg, ok := t.registries[name]
	return reg, ok
}

// Remove deletes the registry associated with name. Removing an absent name
// is a no-op.
func (t *Table) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.registries, name)
}

// Names returns the names currently present, in unspecified order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.registries))
	for name := range t.registries {
		names = append(names, name)
	}
	return names
}
