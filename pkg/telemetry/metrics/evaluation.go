package metrics

import (
	"time"

	"mercator-hq/irvm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks plan evaluations.
//
// Metrics:
//   - irvm_engine_evaluations_total: Evaluations by plan and outcome
//   - irvm_engine_evaluation_duration_seconds: Evaluation wall time by plan
//   - irvm_engine_evaluation_instructions: Statements executed per evaluation
//   - irvm_engine_exceptions_total: Raised exceptions by kind
type EvaluationMetrics struct {
	evaluationsTotal *prometheus.CounterVec

	evaluationDuration *prometheus.HistogramVec

	instructions *prometheus.HistogramVec

	exceptionsTotal *prometheus.CounterVec
}

// NewEvaluationMetrics creates and registers evaluation metrics with the provided registry.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of plan evaluations",
			},
			[]string{"plan", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of plan evaluation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"plan"},
		),

		instructions: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_instructions",
				Help:      "Number of statements executed per evaluation",
				Buckets:   cfg.InstructionBuckets,
			},
			[]string{"plan"},
		),

		exceptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exceptions_total",
				Help:      "Total number of evaluation exceptions by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.instructions,
		em.exceptionsTotal,
	)

	return em
}

// RecordEvaluation records one finished evaluation.
//
// Example:
//
//	em.RecordEvaluation("authz/allow", "success", 250*time.Microsecond, 42)
func (em *EvaluationMetrics) RecordEvaluation(plan, outcome string, duration time.Duration, instructions int64) {
	em.evaluationsTotal.WithLabelValues(plan, outcome).Inc()
	em.evaluationDuration.WithLabelValues(plan).Observe(duration.Seconds())
	em.instructions.WithLabelValues(plan).Observe(float64(instructions))
}

// RecordException counts an exception of the given kind.
func (em *EvaluationMetrics) RecordException(kind string) {
	em.exceptionsTotal.WithLabelValues(kind).Inc()
}
