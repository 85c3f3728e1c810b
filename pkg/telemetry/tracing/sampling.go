package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	// SamplerAlways samples all traces.
	SamplerAlways = "always"

	// SamplerNever samples no traces.
	SamplerNever = "never"

	// SamplerRatio samples a fraction of traces by trace ID.
	SamplerRatio = "ratio"

	// SamplerParent follows the parent span's decision and samples root
	// spans by ratio.
	SamplerParent = "parent"
)

// createSampler creates a sampler based on the strategy and ratio.
//
// "always", "never" and "ratio" decide for every trace independently of
// any incoming parent. "parent" honours the sampled flag of a propagated
// parent (for example one taken from TRACEPARENT) and falls back to ratio
// sampling for root spans:
//
//	telemetry:
//	  tracing:
//	    sampler: parent
//	    sample_ratio: 0.1
//
// An empty strategy selects ratio sampling.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	switch strategy {
	case SamplerAlways:
		return sdktrace.AlwaysSample(), nil

	case SamplerNever:
		return sdktrace.NeverSample(), nil

	case SamplerRatio, "":
		if err := validateRatio(ratio); err != nil {
			return nil, err
		}
		return sdktrace.TraceIDRatioBased(ratio), nil

	case SamplerParent:
		if err := validateRatio(ratio); err != nil {
			return nil, err
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil

	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio, parent)", strategy)
	}
}

func validateRatio(ratio float64) error {
	if ratio < 0.0 || ratio > 1.0 {
		return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}
	return nil
}
