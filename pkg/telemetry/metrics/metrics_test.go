package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/irvm/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:            true,
		Namespace:          "test",
		Subsystem:          "metrics",
		DurationBuckets:    []float64{0.001, 0.01, 0.1},
		InstructionBuckets: []float64{10, 100},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if collector.config.Namespace != "test" {
		t.Errorf("namespace = %q", collector.config.Namespace)
	}
}

func TestCollector_Defaults(t *testing.T) {
	collector := NewCollector(nil, nil)
	if collector.Registry() == nil {
		t.Fatal("nil registry")
	}
	if collector.config.Namespace != config.DefaultMetricsNamespace ||
		collector.config.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("config = %+v", collector.config)
	}

	collector.ObserveEvaluation("a/b", "success", time.Millisecond, 3)
	if got := testutil.ToFloat64(collector.evaluationMetrics.evaluationsTotal.WithLabelValues("a/b", "success")); got != 1 {
		t.Errorf("evaluations = %v, want 1", got)
	}

	// The caller's config is not modified.
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)
	if cfg.Namespace != "" {
		t.Errorf("caller config modified: %+v", cfg)
	}
}

func TestCollector_ObserveEvaluation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveEvaluation("authz/allow", "success", 2*time.Millisecond, 42)
	collector.ObserveEvaluation("authz/allow", "success", 5*time.Millisecond, 7)
	collector.ObserveEvaluation("authz/allow", "exception", time.Millisecond, 1)

	em := collector.evaluationMetrics
	if got := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("authz/allow", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("authz/allow", "exception")); got != 1 {
		t.Errorf("exception count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(em.evaluationDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}

	expected := `
# HELP test_metrics_evaluation_instructions Number of statements executed per evaluation
# TYPE test_metrics_evaluation_instructions histogram
test_metrics_evaluation_instructions_bucket{plan="authz/allow",le="10"} 2
test_metrics_evaluation_instructions_bucket{plan="authz/allow",le="100"} 3
test_metrics_evaluation_instructions_bucket{plan="authz/allow",le="+Inf"} 3
test_metrics_evaluation_instructions_sum{plan="authz/allow"} 50
test_metrics_evaluation_instructions_count{plan="authz/allow"} 3
`
	if err := testutil.CollectAndCompare(em.instructions, strings.NewReader(expected)); err != nil {
		t.Errorf("instructions histogram mismatch: %v", err)
	}
}

func TestCollector_ObserveException(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	for _, kind := range []string{"conflict", "conflict", "type"} {
		collector.ObserveException(kind)
	}

	expected := `
# HELP test_metrics_exceptions_total Total number of evaluation exceptions by kind
# TYPE test_metrics_exceptions_total counter
test_metrics_exceptions_total{kind="conflict"} 2
test_metrics_exceptions_total{kind="type"} 1
`
	if err := testutil.CollectAndCompare(collector.evaluationMetrics.exceptionsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("exceptions mismatch: %v", err)
	}
}

func TestCollector_ObserveReload(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	at := time.Unix(1700000000, 0)
	collector.now = func() time.Time { return at }

	collector.ObserveReload("success")
	collector.now = func() time.Time { return at.Add(time.Hour) }
	collector.ObserveReload("invalid")
	collector.ObserveReload("error")

	pm := collector.policyMetrics
	for outcome, want := range map[string]float64{"success": 1, "invalid": 1, "error": 1} {
		if got := testutil.ToFloat64(pm.reloadsTotal.WithLabelValues(outcome)); got != want {
			t.Errorf("reloads{%s} = %v, want %v", outcome, got, want)
		}
	}
	if got := testutil.ToFloat64(pm.lastReload); got != 1700000000 {
		t.Errorf("last reload = %v, want the successful reload time", got)
	}
}

func TestCollector_ObserveCacheLookup(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveCacheLookup(false, 1)
	collector.ObserveCacheLookup(true, 1)
	collector.ObserveCacheLookup(true, 1)
	collector.ObserveCacheLookup(false, 2)

	cm := collector.cacheMetrics
	if got := testutil.ToFloat64(cm.lookupsTotal.WithLabelValues(cacheHit)); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cm.lookupsTotal.WithLabelValues(cacheMiss)); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cm.entries); got != 2 {
		t.Errorf("entries = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.ObserveEvaluation("p", "success", time.Millisecond, 1)
	collector.ObserveException("type")
	collector.ObserveReload("success")
	collector.ObserveCacheLookup(true, 1)

	if got := testutil.CollectAndCount(collector.evaluationMetrics.evaluationsTotal); got != 0 {
		t.Errorf("evaluations recorded while disabled: %d", got)
	}
	if got := testutil.CollectAndCount(collector.cacheMetrics.lookupsTotal); got != 0 {
		t.Errorf("cache hits recorded while disabled: %d", got)
	}
	if got := testutil.ToFloat64(collector.policyMetrics.lastReload); got != 0 {
		t.Errorf("reload timestamp set while disabled: %v", got)
	}
}

func TestCollector_PlanCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.plans = NewCardinalityLimiter(2)

	for i := 0; i < 5; i++ {
		collector.ObserveEvaluation(fmt.Sprintf("plan/%d", i), "success", time.Millisecond, 1)
	}

	em := collector.evaluationMetrics
	if got := testutil.CollectAndCount(em.evaluationsTotal); got != 3 {
		t.Errorf("series = %d, want 3", got)
	}
	if got := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues(otherPlan, "success")); got != 3 {
		t.Errorf("other = %v, want 3", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for _, label := range []string{"a", "b", "c"} {
		if !limiter.Allow(label) {
			t.Errorf("Allow(%q) = false", label)
		}
	}
	if limiter.Allow("d") {
		t.Error("Allow past the limit = true")
	}
	if !limiter.Allow("a") {
		t.Error("Allow of a known label = false")
	}
	if got := limiter.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestCollector_WriteText(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.ObserveEvaluation("authz/allow", "success", time.Millisecond, 4)
	collector.ObserveReload("success")

	var buf bytes.Buffer
	if err := collector.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# TYPE test_metrics_evaluations_total counter",
		`test_metrics_evaluations_total{outcome="success",plan="authz/allow"} 1`,
		`test_metrics_policy_reloads_total{outcome="success"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteText() output missing %q:\n%s", want, out)
		}
	}

	families, err := collector.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather() returned no families")
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.ObserveException("builtin")

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.String(), `test_metrics_exceptions_total{kind="builtin"} 1`) {
		t.Errorf("handler output missing exception counter:\n%s", body.String())
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.ObserveEvaluation(fmt.Sprintf("plan/%d", i%3), "success", time.Microsecond, int64(j))
				collector.ObserveCacheLookup(j%2 == 0, j)
			}
		}(i)
	}
	wg.Wait()

	var total float64
	for i := 0; i < 3; i++ {
		total += testutil.ToFloat64(collector.evaluationMetrics.evaluationsTotal.WithLabelValues(fmt.Sprintf("plan/%d", i), "success"))
	}
	if total != 1000 {
		t.Errorf("total evaluations = %v, want 1000", total)
	}
}
