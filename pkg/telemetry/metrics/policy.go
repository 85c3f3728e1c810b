package metrics

import (
	"time"

	"mercator-hq/irvm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PolicyMetrics tracks policy reloads.
//
// Metrics:
//   - irvm_engine_policy_reloads_total: Reload attempts by outcome
//   - irvm_engine_policy_last_reload_timestamp_seconds: Time of the last successful reload
type PolicyMetrics struct {
	reloadsTotal *prometheus.CounterVec

	lastReload prometheus.Gauge
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *PolicyMetrics {
	pm := &PolicyMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_reloads_total",
				Help:      "Total number of policy reloads by outcome",
			},
			[]string{"outcome"},
		),

		lastReload: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful policy reload",
			},
		),
	}

	registry.MustRegister(
		pm.reloadsTotal,
		pm.lastReload,
	)

	return pm
}

// RecordReload records a reload attempt. Outcomes are "success", "error"
// and "invalid"; only a success moves the timestamp.
func (pm *PolicyMetrics) RecordReload(outcome string, at time.Time) {
	pm.reloadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		pm.lastReload.Set(float64(at.UnixNano()) / 1e9)
	}
}
