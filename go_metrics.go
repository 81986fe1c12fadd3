package metric

import "runtime"

// RegisterGoCollector installs go_goroutines and a handful of go_memstats_*
// gauges on reg, refreshed from runtime.ReadMemStats on every scrape (A4).
func RegisterGoCollector(reg *Registry) error {
	goroutines, err := reg.NewGauge(MetricOpts{
		Name: "go_goroutines",
		Help: "Number of goroutines that currently exist.",
	})
	if err != nil {
		return err
	}

	allocBytes, err := reg.NewGauge(MetricOpts{
		Name: "go_memstats_alloc_bytes",
		Help: "Number of bytes allocated and still in use.",
	})
	if err != nil {
		return err
	}

	sysBytes, err := reg.NewGauge(MetricOpts{
		Name: "go_memstats_sys_bytes",
		Help: "Number of bytes obtained from the OS.",
	})
	if err != nil {
		return err
	}

	heapObjects, err := reg.NewGauge(MetricOpts{
		Name: "go_memstats_heap_objects",
		Help: "Number of allocated objects.",
	})
	if err != nil {
		return err
	}

	lastGC, err := reg.NewGauge(MetricOpts{
		Name: "go_memstats_last_gc_time_seconds",
		Help: "Time of the last garbage collection, unix time in seconds.",
	})
	if err != nil {
		return err
	}

	reg.AddBeforeCollect(func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		goroutines.Set(float64(runtime.NumGoroutine()))
		allocBytes.Set(float64(ms.Alloc))
		sysBytes.Set(float64(ms.Sys))
		heapObjects.Set(float64(ms.HeapObjects))
		lastGC.Set(float64(ms.LastGC) / 1e9)
	})
	return nil
}
