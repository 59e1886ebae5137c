package metrics

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
)

// registerRuntimeCollectors wires the standard process-introspection gauge
// sets into the registry: Go runtime (memstats, GC, goroutines), OS process
// (fds, rss, cpu) and build info. Registration is not idempotent; the
// service calls this exactly once per registry, at Start.
func registerRuntimeCollectors(reg *prom.Registry) error {
	cs := []prom.Collector{
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
		promcollect.NewBuildInfoCollector(),
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("runtime collector: %w", err)
		}
	}
	return nil
}
