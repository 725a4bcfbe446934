package metrics

import (
	"time"

	"ollgate-hq/ollgate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks metrics related to proxied generate requests.
//
// Metrics:
//   - ollgate_requests_total: Total request count by outcome
//   - ollgate_request_duration_seconds: Request duration histogram by outcome
//   - ollgate_response_size_bytes: Response body size histogram
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// Response size in bytes
	responseBytes prometheus.Histogram
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of generate requests processed",
			},
			[]string{"outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of generate requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"outcome"},
		),

		responseBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "response_size_bytes",
				Help:      "Size of generate response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256B to 64MB
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.responseBytes,
	)

	return rm
}

// RecordRequest records metrics for a completed request.
//
// Outcomes: "cache_hit", "cache_miss", "upstream_error", "bad_request".
func (rm *RequestMetrics) RecordRequest(outcome string, duration time.Duration, responseBytes int) {
	rm.requestsTotal.WithLabelValues(outcome).Inc()
	rm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if responseBytes > 0 {
		rm.responseBytes.Observe(float64(responseBytes))
	}
}
