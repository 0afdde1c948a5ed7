package restcache

import (
	"sync"
	"time"
)

// Stats is a snapshot of cache activity. The counters cover the period
// since the previous report and reset on every report, Keys is the
// current number of stored entries.
type Stats struct {
	Keys          int
	Hits          int
	Misses        int
	Errors        int
	Invalidations int
}

// Monitor is an interface for collecting stats about the cache
type Monitor interface {
	GetInterval() time.Duration
	Log(Stats)
	Hit()
	Miss()
	Error()
	Invalidate()
}

// MonitorFunc turns a function into a Monitor.
// The function is called with the collected stats every interval.
func MonitorFunc(interval time.Duration, logFunc func(Stats)) Monitor {
	return &monitorFunc{
		interval: interval,
		logFunc:  logFunc,
	}
}

type monitorFunc struct {
	interval        time.Duration
	logFunc         func(Stats)
	hits            int
	hitMutex        sync.Mutex
	misses          int
	missMutex       sync.Mutex
	errors          int
	errorMutex      sync.Mutex
	invalidations   int
	invalidateMutex sync.Mutex
}

func (m *monitorFunc) GetInterval() time.Duration {
	return m.interval
}

func (m *monitorFunc) Log(stats Stats) {
	// hits
	m.hitMutex.Lock()
	stats.Hits = m.hits
	m.hits = 0
	m.hitMutex.Unlock()

	// misses
	m.missMutex.Lock()
	stats.Misses = m.misses
	m.misses = 0
	m.missMutex.Unlock()

	// errors
	m.errorMutex.Lock()
	stats.Errors = m.errors
	m.errors = 0
	m.errorMutex.Unlock()

	// invalidations
	m.invalidateMutex.Lock()
	stats.Invalidations = m.invalidations
	m.invalidations = 0
	m.invalidateMutex.Unlock()

	// log
	m.logFunc(stats)
}

func (m *monitorFunc) Hit() {
	m.hitMutex.Lock()
	defer m.hitMutex.Unlock()
	m.hits++
}

func (m *monitorFunc) Miss() {
	m.missMutex.Lock()
	defer m.missMutex.Unlock()
	m.misses++
}

func (m *monitorFunc) Error() {
	m.errorMutex.Lock()
	defer m.errorMutex.Unlock()
	m.errors++
}

func (m *monitorFunc) Invalidate() {
	m.invalidateMutex.Lock()
	defer m.invalidateMutex.Unlock()
	m.invalidations++
}
