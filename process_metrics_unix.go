//go:build unix

package metric

import "syscall"

func processCPUSeconds() (float64, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	user := float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6
	sys := float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6
	return user + sys, true
}

func processResidentBytes() (float64, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	// ru_maxrss is KB on linux, bytes on some BSDs. Treat as KB if it looks small.
	rss := float64(ru.Maxrss)
	if rss < 1<<32 {
		return rss * 1024, true
	}
	return rss, true
}
