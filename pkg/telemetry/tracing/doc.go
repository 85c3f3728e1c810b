// Package tracing configures OpenTelemetry tracing for irvm.
//
// # Overview
//
// New builds a tracer provider from the telemetry.tracing configuration:
// spans are batched to an OTLP gRPC collector when tracing is enabled, and
// a noop tracer is used otherwise. The tracer is handed to the engine, which
// opens one span per evaluation.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	vm, err := engine.NewVM(engineCfg, src, logger, engine.WithTracer(tracer.Tracer()))
//
// # Sampling
//
// The sampler is one of "always", "never", "ratio" (trace ID ratio, the
// default) or "parent" (follow the propagated parent, ratio for roots).
//
// # Propagation
//
// ContextFromEnv reads W3C trace context from the TRACEPARENT and TRACESTATE
// environment variables so a calling tool can parent irvm's spans.
package tracing
