package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// ContextKey is the type for context keys used by the logging package.
type ContextKey string

const (
	// EvaluationIDKey is the context key for the evaluation ID.
	EvaluationIDKey ContextKey = "evaluation_id"

	// PlanKey is the context key for the plan being evaluated.
	PlanKey ContextKey = "plan"

	// PolicyKey is the context key for the policy name.
	PolicyKey ContextKey = "policy"

	// DigestKey is the context key for the policy digest.
	DigestKey ContextKey = "policy_digest"

	// TraceIDKey is the attribute key for the active trace ID.
	TraceIDKey ContextKey = "trace_id"

	// SpanIDKey is the attribute key for the active span ID.
	SpanIDKey ContextKey = "span_id"
)

// contextKeys lists the string-valued keys copied from a context into every
// record, in output order.
var contextKeys = []ContextKey{EvaluationIDKey, PolicyKey, DigestKey, PlanKey}

// WithEvaluationID adds an evaluation ID to the context.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, EvaluationIDKey, id)
}

// GetEvaluationID retrieves the evaluation ID from the context.
func GetEvaluationID(ctx context.Context) string {
	return getString(ctx, EvaluationIDKey)
}

// WithPlan adds a plan name to the context.
func WithPlan(ctx context.Context, plan string) context.Context {
	return context.WithValue(ctx, PlanKey, plan)
}

// GetPlan retrieves the plan name from the context.
func GetPlan(ctx context.Context) string {
	return getString(ctx, PlanKey)
}

// WithPolicy adds a policy name and digest to the context. An empty digest
// is not recorded.
func WithPolicy(ctx context.Context, name, digest string) context.Context {
	ctx = context.WithValue(ctx, PolicyKey, name)
	if digest != "" {
		ctx = context.WithValue(ctx, DigestKey, digest)
	}
	return ctx
}

// GetPolicy retrieves the policy name from the context.
func GetPolicy(ctx context.Context) string {
	return getString(ctx, PolicyKey)
}

// GetDigest retrieves the policy digest from the context.
func GetDigest(ctx context.Context) string {
	return getString(ctx, DigestKey)
}

func getString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// contextAttrs extracts the logging fields from a context, including the
// trace and span IDs of a valid span context.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v := getString(ctx, key); v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String(string(TraceIDKey), sc.TraceID().String()),
			slog.String(string(SpanIDKey), sc.SpanID().String()),
		)
	}
	return attrs
}

// contextHandler adds context fields to each record before passing it on.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}

// WithContext returns a logger that carries the context fields of ctx on
// every record, for code that logs without passing a context.
func WithContext(logger *slog.Logger, ctx context.Context) *slog.Logger {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}
