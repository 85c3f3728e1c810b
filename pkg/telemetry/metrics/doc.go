// Package metrics provides Prometheus metrics collection for irvm.
//
// # Overview
//
// A Collector owns a Prometheus registry and records what the policy engine
// reports through its observer hooks: evaluations, exceptions, policy
// reloads and decoded-policy cache lookups.
//
// # Metrics
//
// With the default namespace and subsystem:
//
//   - irvm_engine_evaluations_total{plan,outcome}
//   - irvm_engine_evaluation_duration_seconds{plan}
//   - irvm_engine_evaluation_instructions{plan}
//   - irvm_engine_exceptions_total{kind}
//   - irvm_engine_policy_reloads_total{outcome}
//   - irvm_engine_policy_last_reload_timestamp_seconds
//   - irvm_engine_policy_cache_lookups_total{result}
//   - irvm_engine_policy_cache_entries
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	src, _ := source.NewFileSource(path, logger, source.WithCacheObserver(collector))
//	vm, _ := engine.NewVM(engineCfg, src, logger, engine.WithObserver(collector))
//
//	// Serve over HTTP, or dump once in text format.
//	http.Handle("/metrics", collector.Handler())
//	_ = collector.WriteText(os.Stdout)
//
// # Cardinality
//
// Plan labels are capped at DefaultMaxPlans distinct values. Further plans
// are recorded under the "other" label.
package metrics
