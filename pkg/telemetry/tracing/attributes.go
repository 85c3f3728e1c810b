package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on irvm spans. The engine's per-evaluation span
// carries the evaluation keys; command spans carry the policy keys.
const (
	AttrEvaluationID = "irvm.evaluation_id"
	AttrPlan         = "irvm.plan"
	AttrResultCount  = "irvm.result_count"
	AttrInstructions = "irvm.instructions"

	AttrPolicyName   = "irvm.policy.name"
	AttrPolicyDigest = "irvm.policy.digest"
	AttrPolicyPlans  = "irvm.policy.plans"
	AttrPolicyFuncs  = "irvm.policy.funcs"

	AttrExceptionKind = "irvm.exception.kind"
	AttrIterations    = "irvm.bench.iterations"
)

// PolicyAttributes describes a loaded policy.
func PolicyAttributes(name, digest string, plans, funcs int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if name != "" {
		attrs = append(attrs, attribute.String(AttrPolicyName, name))
	}
	if digest != "" {
		attrs = append(attrs, attribute.String(AttrPolicyDigest, digest))
	}
	return append(attrs,
		attribute.Int(AttrPolicyPlans, plans),
		attribute.Int(AttrPolicyFuncs, funcs),
	)
}

// SetError marks the span as failed and records the error. A non-empty
// kind is attached as the exception kind.
func SetError(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	if kind != "" {
		span.SetAttributes(attribute.String(AttrExceptionKind, kind))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetStatus sets the span status based on an error.
// If err is nil, status is set to OK, otherwise to Error.
func SetStatus(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
