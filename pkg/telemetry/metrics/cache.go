package metrics

import (
	"ollgate-hq/ollgate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks response cache performance.
//
// Metrics:
//   - ollgate_cache_hits_total: Total cache hits
//   - ollgate_cache_misses_total: Total cache misses
//   - ollgate_cache_entries: Current number of resident entries
//   - ollgate_cache_size_bytes: Current total resident value size
//   - ollgate_cache_evictions_total: Total evictions (LRU, TTL, and manual)
type CacheMetrics struct {
	hitsTotal      prometheus.Counter
	missesTotal    prometheus.Counter
	entries        prometheus.Gauge
	sizeBytes      prometheus.Gauge
	evictionsTotal prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),

		missesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_entries",
				Help:      "Current number of entries in the response cache",
			},
		),

		sizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_size_bytes",
				Help:      "Current total size of cached response bodies",
			},
		),

		evictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions",
			},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.sizeBytes,
		cm.evictionsTotal,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit() {
	cm.hitsTotal.Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss() {
	cm.missesTotal.Inc()
}

// Evicted implements cache.Observer.
func (cm *CacheMetrics) Evicted(count int) {
	cm.evictionsTotal.Add(float64(count))
}

// Resized implements cache.Observer.
func (cm *CacheMetrics) Resized(entries int, bytes int64) {
	cm.entries.Set(float64(entries))
	cm.sizeBytes.Set(float64(bytes))
}
