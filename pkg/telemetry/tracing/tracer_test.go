package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/irvm/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracer(t *testing.T, cfg *config.TracingConfig) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(cfg, "v1.2.3", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{"nil config", nil, true, false},
		{"disabled tracing", &config.TracingConfig{Enabled: false, ServiceName: "test"}, false, false},
		{
			"enabled without endpoint",
			&config.TracingConfig{Enabled: true, Sampler: "always"},
			true, false,
		},
		{
			"enabled with invalid sampler",
			&config.TracingConfig{Enabled: true, Sampler: "sometimes", Endpoint: "localhost:4317", Insecure: true},
			true, false,
		},
		{
			"enabled with OTLP endpoint",
			&config.TracingConfig{
				Enabled:  true,
				Sampler:  "ratio",
				Endpoint: "localhost:4317",
				Insecure: true,
				Timeout:  time.Second,
			},
			false, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}
			if tracer.Tracer() == nil {
				t.Error("Tracer() = nil")
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := tracer.Shutdown(ctx); err != nil {
				t.Logf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestNew_DisabledIsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{}, "")
	if err != nil {
		t.Fatal(err)
	}
	ctx, span := tracer.Start(context.Background(), "op")
	defer span.End()

	if span.IsRecording() {
		t.Error("disabled tracer produced a recording span")
	}
	if TraceID(ctx) != "" || SpanID(ctx) != "" {
		t.Error("disabled tracer produced a valid span context")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewWithExporter_Errors(t *testing.T) {
	if _, err := NewWithExporter(nil, "", tracetest.NewInMemoryExporter()); err == nil {
		t.Error("nil config accepted")
	}
	if _, err := NewWithExporter(&config.TracingConfig{Sampler: "always"}, "", nil); err == nil {
		t.Error("nil exporter accepted")
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	tracer, exporter := newTestTracer(t, &config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		ServiceName: "irvm-test",
	})

	ctx, parent := tracer.Start(context.Background(), "irvm.cli.eval",
		trace.WithAttributes(PolicyAttributes("authz", "abc", 2, 1)...))
	_, child := tracer.Start(ctx, "irvm.eval")
	SetError(child, errors.New("conflict"), "conflict")
	child.End()
	SetStatus(parent, nil)
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}

	childStub, parentStub := spans[0], spans[1]
	if childStub.Parent.SpanID() != parentStub.SpanContext.SpanID() {
		t.Error("child span is not parented")
	}
	if childStub.Status.Code != codes.Error || childStub.Status.Description != "conflict" {
		t.Errorf("child status = %+v", childStub.Status)
	}
	if v, ok := attrValue(childStub.Attributes, AttrExceptionKind); !ok || v.AsString() != "conflict" {
		t.Errorf("exception kind = %v", v.Emit())
	}
	if len(childStub.Events) != 1 || childStub.Events[0].Name != "exception" {
		t.Errorf("child events = %+v", childStub.Events)
	}

	if parentStub.Status.Code != codes.Ok {
		t.Errorf("parent status = %+v", parentStub.Status)
	}
	if v, _ := attrValue(parentStub.Attributes, AttrPolicyPlans); v.AsInt64() != 2 {
		t.Errorf("%s = %v", AttrPolicyPlans, v.Emit())
	}

	res := parentStub.Resource.Attributes()
	if v, _ := attrValue(res, "service.name"); v.AsString() != "irvm-test" {
		t.Errorf("service.name = %q", v.AsString())
	}
	if v, _ := attrValue(res, "service.version"); v.AsString() != "v1.2.3" {
		t.Errorf("service.version = %q", v.AsString())
	}
}

func TestTracer_DefaultServiceName(t *testing.T) {
	tracer, exporter := newTestTracer(t, &config.TracingConfig{Enabled: true, Sampler: SamplerAlways})
	_, span := tracer.Start(context.Background(), "op")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans", len(spans))
	}
	if v, _ := attrValue(spans[0].Resource.Attributes(), "service.name"); v.AsString() != config.DefaultTracingServiceName {
		t.Errorf("service.name = %q", v.AsString())
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tracer, exporter := newTestTracer(t, &config.TracingConfig{Enabled: true, Sampler: SamplerNever})

	ctx, span := tracer.Start(context.Background(), "op")
	span.End()

	if len(exporter.GetSpans()) != 0 {
		t.Error("never sampler exported a span")
	}
	// The span context is still valid so IDs propagate.
	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Error("unsampled span has no IDs")
	}
}

func TestTraceAndSpanID(t *testing.T) {
	if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
		t.Fatal("empty context returned IDs")
	}

	tracer, _ := newTestTracer(t, &config.TracingConfig{Enabled: true, Sampler: SamplerAlways})
	ctx, span := tracer.Start(context.Background(), "op")
	defer span.End()

	if got, want := TraceID(ctx), span.SpanContext().TraceID().String(); got != want {
		t.Errorf("TraceID() = %q, want %q", got, want)
	}
	if got, want := SpanID(ctx), span.SpanContext().SpanID().String(); got != want {
		t.Errorf("SpanID() = %q, want %q", got, want)
	}
}

func TestPolicyAttributes(t *testing.T) {
	attrs := PolicyAttributes("", "", 3, 0)
	if len(attrs) != 2 {
		t.Fatalf("PolicyAttributes() = %v, want only counts", attrs)
	}
	if _, ok := attrValue(attrs, AttrPolicyName); ok {
		t.Error("empty name was recorded")
	}
}

func TestSetError_Nil(t *testing.T) {
	tracer, exporter := newTestTracer(t, &config.TracingConfig{Enabled: true, Sampler: SamplerAlways})
	_, span := tracer.Start(context.Background(), "op")
	SetError(span, nil, "type")
	span.End()

	s := exporter.GetSpans()[0]
	if s.Status.Code != codes.Unset || len(s.Events) != 0 || len(s.Attributes) != 0 {
		t.Errorf("SetError(nil) changed the span: %+v", s)
	}
}
