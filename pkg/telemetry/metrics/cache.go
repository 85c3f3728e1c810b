package metrics

import (
	"mercator-hq/irvm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results.
const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// PolicyCacheMetrics tracks the decoded-policy cache of file sources. A
// lookup hits when the file's digest matches an already decoded policy.
//
// Metrics:
//   - irvm_engine_policy_cache_lookups_total{result}: lookups by hit or miss
//   - irvm_engine_policy_cache_entries: decoded policies held in the cache
type PolicyCacheMetrics struct {
	lookupsTotal *prometheus.CounterVec
	entries      prometheus.Gauge
}

// NewPolicyCacheMetrics creates and registers cache metrics with registry.
func NewPolicyCacheMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *PolicyCacheMetrics {
	cm := &PolicyCacheMetrics{
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_cache_lookups_total",
				Help:      "Decoded-policy cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policy_cache_entries",
				Help:      "Decoded policies currently held in the cache",
			},
		),
	}

	registry.MustRegister(cm.lookupsTotal, cm.entries)
	return cm
}

// RecordLookup counts one lookup and sets the cache size seen after it.
func (cm *PolicyCacheMetrics) RecordLookup(hit bool, entries int) {
	result := cacheMiss
	if hit {
		result = cacheHit
	}
	cm.lookupsTotal.WithLabelValues(result).Inc()
	cm.entries.Set(float64(entries))
}
