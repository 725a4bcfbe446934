package metrics

import (
	"ollgate-hq/ollgate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics tracks API key authentication outcomes.
//
// Metrics:
//   - ollgate_auth_accepted_total: Requests that passed authentication
//   - ollgate_auth_rejected_total: Rejected requests by reason
//   - ollgate_keyset_keys: Number of keys in the active set
//   - ollgate_keyset_generation: Generation counter of the active set
type AuthMetrics struct {
	acceptedTotal prometheus.Counter
	rejectedTotal *prometheus.CounterVec
	keysetKeys    prometheus.Gauge
	keysetGen     prometheus.Gauge
}

// NewAuthMetrics creates and registers auth metrics with the provided registry.
func NewAuthMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuthMetrics {
	am := &AuthMetrics{
		acceptedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "auth_accepted_total",
				Help:      "Total number of requests that passed API key authentication",
			},
		),

		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "auth_rejected_total",
				Help:      "Total number of rejected requests",
			},
			[]string{"reason"},
		),

		keysetKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "keyset_keys",
				Help:      "Number of credentials in the active key set",
			},
		),

		keysetGen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "keyset_generation",
				Help:      "Generation counter of the active key set",
			},
		),
	}

	registry.MustRegister(
		am.acceptedTotal,
		am.rejectedTotal,
		am.keysetKeys,
		am.keysetGen,
	)

	return am
}

// RecordAuth implements auth.RejectionRecorder.
func (am *AuthMetrics) RecordAuth(accepted bool, reason string) {
	if accepted {
		am.acceptedTotal.Inc()
		return
	}
	am.rejectedTotal.WithLabelValues(reason).Inc()
}

// UpdateKeySet records the size and generation of the active key set.
func (am *AuthMetrics) UpdateKeySet(keys int, generation uint64) {
	am.keysetKeys.Set(float64(keys))
	am.keysetGen.Set(float64(generation))
}
