package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TierMetrics holds the Prometheus collectors for tier attempts.
type TierMetrics struct {
	Attempts *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// NewTierMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in the server so fiberprometheus exposes them on /metrics.
func NewTierMetrics(reg prometheus.Registerer) *TierMetrics {
	factory := promauto.With(reg)

	return &TierMetrics{
		// result: "served" or "failed"
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outfit_stylist_tier_attempts_total",
			Help: "Total number of tier attempts by operation, tier and result",
		}, []string{"operation", "tier", "result"}),

		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outfit_stylist_tier_attempt_duration_seconds",
			Help:    "Tier attempt latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"operation", "tier"}),
	}
}

func (m *TierMetrics) observe(operation, tier, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(operation, tier, result).Inc()
	m.Latency.WithLabelValues(operation, tier).Observe(elapsed.Seconds())
}
