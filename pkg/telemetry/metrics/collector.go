package metrics

import (
	"ollgate-hq/ollgate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics in ollgate.
// It manages metric registration and provides a unified interface for
// recording request, cache, and authentication metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	cacheMetrics   *CacheMetrics
	authMetrics    *AuthMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "ollgate"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{0.005, 0.05, 0.25, 1, 5, 15, 60, 180, 300}
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		requestMetrics: NewRequestMetrics(cfg, registry),
		cacheMetrics:   NewCacheMetrics(cfg, registry),
		authMetrics:    NewAuthMetrics(cfg, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Requests returns the request metrics subsystem.
func (c *Collector) Requests() *RequestMetrics {
	return c.requestMetrics
}

// Cache returns the cache metrics subsystem.
func (c *Collector) Cache() *CacheMetrics {
	return c.cacheMetrics
}

// Auth returns the authentication metrics subsystem.
func (c *Collector) Auth() *AuthMetrics {
	return c.authMetrics
}

// Enabled reports whether metrics collection is enabled.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}
