package metric

import "sync"

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide default Registry, lazily
// creating it (with the Go and process collectors installed as
// before-first-collect hooks, A4) on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.AddBeforeFirstCollect(func() {
			_ = RegisterGoCollector(defaultRegistry)
			_ = RegisterProcessCollector(defaultRegistry)
		})
	})
	return defaultRegistry
}
