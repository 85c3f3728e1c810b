package tracing

import (
	"context"
	"testing"

	"mercator-hq/irvm/pkg/config"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.5, false},
		{"", 0.1, false},
		{SamplerParent, 1, false},
		{SamplerRatio, 1.5, true},
		{SamplerParent, -0.1, true},
		{"sometimes", 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			s, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Error("nil sampler")
			}
		})
	}
}

func TestSampler_Decisions(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		want     sdktrace.SamplingDecision
	}{
		{SamplerAlways, 0, sdktrace.RecordAndSample},
		{SamplerNever, 0, sdktrace.Drop},
		{SamplerRatio, 1, sdktrace.RecordAndSample},
		{SamplerRatio, 0, sdktrace.Drop},
	}

	for _, tt := range tests {
		s, err := createSampler(tt.strategy, tt.ratio)
		if err != nil {
			t.Fatal(err)
		}
		res := s.ShouldSample(sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       trace.TraceID{1},
			Name:          "op",
		})
		if res.Decision != tt.want {
			t.Errorf("%s(%v) decision = %v, want %v", tt.strategy, tt.ratio, res.Decision, tt.want)
		}
	}
}

func TestSampler_ParentFollowsPropagatedFlag(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(&config.TracingConfig{Enabled: true, Sampler: SamplerParent, SampleRatio: 0}, "", exporter)
	if err != nil {
		t.Fatal(err)
	}
	defer tracer.Shutdown(context.Background())

	// Root span: ratio 0 drops it.
	_, root := tracer.Start(context.Background(), "root")
	root.End()

	// Sampled remote parent: the child is kept despite ratio 0.
	sampled := ContextFromCarrier(context.Background(), map[string]string{
		"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})
	_, child := tracer.Start(sampled, "child")
	child.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "child" {
		t.Fatalf("exported %v, want only the child", spans)
	}
	if got := spans[0].SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s", got)
	}
}
