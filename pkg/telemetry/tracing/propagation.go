package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/propagation"
)

// Environment variables carrying W3C trace context into a process. A parent
// tool can set them to make irvm spans children of its own trace:
//
//	TRACEPARENT=00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01 irvm eval ...
const (
	EnvTraceParent = "TRACEPARENT"
	EnvTraceState  = "TRACESTATE"
)

var envPropagator = propagation.TraceContext{}

// ContextFromEnv returns ctx with the remote span context described by
// TRACEPARENT and TRACESTATE. Without a valid TRACEPARENT, ctx is returned
// unchanged.
func ContextFromEnv(ctx context.Context) context.Context {
	return ContextFromCarrier(ctx, envCarrier(os.Getenv))
}

// ContextFromCarrier extracts W3C trace context from a map keyed by the
// lower-case header names traceparent and tracestate.
func ContextFromCarrier(ctx context.Context, carrier map[string]string) context.Context {
	return envPropagator.Extract(ctx, propagation.MapCarrier(carrier))
}

// InjectEnv returns TRACEPARENT and TRACESTATE assignments for the span in
// ctx, ready to append to a child process environment. It returns nil when
// ctx carries no valid span.
func InjectEnv(ctx context.Context) []string {
	carrier := propagation.MapCarrier{}
	envPropagator.Inject(ctx, carrier)

	var env []string
	if v := carrier.Get("traceparent"); v != "" {
		env = append(env, EnvTraceParent+"="+v)
	}
	if v := carrier.Get("tracestate"); v != "" {
		env = append(env, EnvTraceState+"="+v)
	}
	return env
}

func envCarrier(getenv func(string) string) map[string]string {
	carrier := map[string]string{}
	if v := getenv(EnvTraceParent); v != "" {
		carrier["traceparent"] = v
	}
	if v := getenv(EnvTraceState); v != "" {
		carrier["tracestate"] = v
	}
	return carrier
}
