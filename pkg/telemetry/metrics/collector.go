package metrics

import (
	"sync"
	"time"

	"mercator-hq/irvm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// otherPlan replaces plan labels once the cardinality limit is reached.
const otherPlan = "other"

// DefaultMaxPlans bounds the number of distinct plan label values.
const DefaultMaxPlans = 1000

// Collector is the main orchestrator for all Prometheus metrics in irvm.
// It satisfies the engine's Observer interface and the file source's
// CacheObserver interface, so a single collector can be handed to both.
//
// Plan names come from loaded policies, so the collector caps the number of
// distinct plan labels; evaluations of plans beyond the cap are recorded
// under "other".
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	now      func() time.Time

	evaluationMetrics *EvaluationMetrics
	policyMetrics     *PolicyMetrics
	cacheMetrics      *PolicyCacheMetrics

	plans *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
// Unset namespace, subsystem and buckets take their configuration defaults;
// a nil cfg enables collection with every default.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	vm, err := engine.NewVM(engineCfg, src, logger, engine.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	resolved := *cfg
	if resolved.Namespace == "" {
		resolved.Namespace = config.DefaultMetricsNamespace
	}
	if resolved.Subsystem == "" {
		resolved.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(resolved.DurationBuckets) == 0 {
		resolved.DurationBuckets = config.DefaultDurationBuckets
	}
	if len(resolved.InstructionBuckets) == 0 {
		resolved.InstructionBuckets = config.DefaultInstructionBuckets
	}

	c := &Collector{
		config:   &resolved,
		registry: registry,
		now:      time.Now,
		plans:    NewCardinalityLimiter(DefaultMaxPlans),
	}

	c.evaluationMetrics = NewEvaluationMetrics(&resolved, registry)
	c.policyMetrics = NewPolicyMetrics(&resolved, registry)
	c.cacheMetrics = NewPolicyCacheMetrics(&resolved, registry)

	return c
}

// ObserveEvaluation records a finished evaluation.
func (c *Collector) ObserveEvaluation(plan, outcome string, d time.Duration, instructions int64) {
	if !c.config.Enabled {
		return
	}
	if !c.plans.Allow(plan) {
		plan = otherPlan
	}
	c.evaluationMetrics.RecordEvaluation(plan, outcome, d, instructions)
}

// ObserveException records an evaluation exception by kind.
func (c *Collector) ObserveException(kind string) {
	if !c.config.Enabled {
		return
	}
	c.evaluationMetrics.RecordException(kind)
}

// ObserveReload records a policy reload attempt.
func (c *Collector) ObserveReload(outcome string) {
	if !c.config.Enabled {
		return
	}
	c.policyMetrics.RecordReload(outcome, c.now())
}

// ObserveCacheLookup records a lookup in the decoded-policy cache and its
// size afterwards.
func (c *Collector) ObserveCacheLookup(hit bool, entries int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordLookup(hit, entries)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
