package metric

import "time"

var processStartTime = time.Now()

// RegisterProcessCollector installs process_start_time_seconds,
// process_cpu_seconds_total and process_resident_memory_bytes on reg as
// ordinary Gauge/Counter children, refreshed from the OS on every scrape
// (A4, §4.6 default collectors). All three are registered on every
// platform; on one whose probes report nothing (see
// process_metrics_other.go) the CPU and memory metrics keep their zero
// value.
func RegisterProcessCollector(reg *Registry) error {
	startTime, err := reg.NewGauge(MetricOpts{
		Name: "process_start_time_seconds",
		Help: "Start time of the process since unix epoch in seconds.",
	})
	if err != nil {
		return err
	}
	startTime.Set(float64(processStartTime.UnixNano()) / float64(time.Second))

	cpuSeconds, cpuErr := reg.NewCounter(MetricOpts{
		Name: "process_cpu_seconds_total",
		Help: "Total user and system CPU time spent in seconds.",
	})
	if cpuErr != nil {
		return cpuErr
	}

	residentBytes, rssErr := reg.NewGauge(MetricOpts{
		Name: "process_resident_memory_bytes",
		Help: "Resident memory size in bytes.",
	})
	if rssErr != nil {
		return rssErr
	}

	reg.AddBeforeCollect(func() {
		if cpu, ok := processCPUSeconds(); ok {
			cpuSeconds.IncTo(cpu)
		}
		if rss, ok := processResidentBytes(); ok {
			residentBytes.Set(rss)
		}
	})
	return nil
}
