// Package metrics reports cache activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/restcache/restcache"
)

// Monitor implements the restcache.Monitor interface on top of a
// dedicated Prometheus registry.
type Monitor struct {
	registry      *prometheus.Registry
	interval      time.Duration
	hits          prometheus.Counter
	misses        prometheus.Counter
	errors        prometheus.Counter
	invalidations prometheus.Counter
	keys          prometheus.Gauge
}

// NewMonitor creates a monitor. The interval is how often the cache
// reports the stored entry count.
func NewMonitor(interval time.Duration) *Monitor {
	registry := prometheus.NewRegistry()

	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restcache_hits_total",
		Help: "Responses served from the cache.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restcache_misses_total",
		Help: "Cacheable requests forwarded to the origin.",
	})
	errors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restcache_errors_total",
		Help: "Origin and cache storage errors.",
	})
	invalidations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restcache_invalidations_total",
		Help: "Invalidation requests, counted per request rather than per dropped entry.",
	})
	keys := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "restcache_entries",
		Help: "Entries currently stored.",
	})

	registry.MustRegister(hits, misses, errors, invalidations, keys)

	return &Monitor{
		registry:      registry,
		interval:      interval,
		hits:          hits,
		misses:        misses,
		errors:        errors,
		invalidations: invalidations,
		keys:          keys,
	}
}

func (m *Monitor) GetInterval() time.Duration {
	return m.interval
}

// Log records the entry count. The counters are incremented as the
// events happen, so the periodic deltas in the stats are not used.
func (m *Monitor) Log(stats restcache.Stats) {
	m.keys.Set(float64(stats.Keys))
}

func (m *Monitor) Hit() {
	m.hits.Inc()
}

func (m *Monitor) Miss() {
	m.misses.Inc()
}

func (m *Monitor) Error() {
	m.errors.Inc()
}

func (m *Monitor) Invalidate() {
	m.invalidations.Inc()
}

// Handler returns an http.Handler that exposes the metrics.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
