// Package telemetry groups the observability packages used by irvm.
//
// # Components
//
//   - logging: slog loggers with redaction and context fields
//   - metrics: Prometheus collector fed by the engine's observer hooks
//   - tracing: OpenTelemetry tracer provider and W3C context propagation
//
// # Usage
//
//	logger, _ := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	vm, err := engine.NewVM(engineCfg, src, logger,
//	    engine.WithObserver(collector),
//	    engine.WithTracer(tracer.Tracer()),
//	)
package telemetry
