// Package metrics provides Prometheus metrics for ollgate.
//
// The Collector owns a registry and three metric subsystems: request
// outcomes and latencies, response cache behavior (hits, misses, evictions,
// resident size), and API key authentication outcomes. CacheMetrics
// implements cache.Observer and AuthMetrics implements
// auth.RejectionRecorder, so the stores feed the collector without
// depending on this package's types directly.
package metrics
