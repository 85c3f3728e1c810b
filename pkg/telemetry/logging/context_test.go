package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace"
)

const (
	testTraceID = "0102030405060708090a0b0c0d0e0f10"
	testSpanID  = "0102030405060708"
)

func withTestSpan(ctx context.Context) context.Context {
	tid, _ := trace.TraceIDFromHex(testTraceID)
	sid, _ := trace.SpanIDFromHex(testSpanID)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(ctx, sc)
}

func TestContextGetters(t *testing.T) {
	ctx := context.Background()
	if GetEvaluationID(ctx) != "" || GetPlan(ctx) != "" || GetPolicy(ctx) != "" || GetDigest(ctx) != "" {
		t.Fatal("empty context returned values")
	}

	ctx = WithEvaluationID(ctx, "e1")
	ctx = WithPlan(ctx, "p/q")
	ctx = WithPolicy(ctx, "authz", "")

	if got := GetEvaluationID(ctx); got != "e1" {
		t.Errorf("GetEvaluationID() = %q", got)
	}
	if got := GetPlan(ctx); got != "p/q" {
		t.Errorf("GetPlan() = %q", got)
	}
	if got := GetPolicy(ctx); got != "authz" {
		t.Errorf("GetPolicy() = %q", got)
	}
	if got := GetDigest(ctx); got != "" {
		t.Errorf("GetDigest() = %q, want empty", got)
	}
}

func TestContextGetters_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), PlanKey, 42)
	if got := GetPlan(ctx); got != "" {
		t.Errorf("GetPlan() = %q, want empty", got)
	}
}

func TestContextAttrs(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want []string
	}{
		{"nil context", nil, nil},
		{"empty", context.Background(), nil},
		{
			"fields in order",
			WithPlan(WithEvaluationID(context.Background(), "e1"), "p"),
			[]string{"evaluation_id=e1", "plan=p"},
		},
		{
			"span only",
			withTestSpan(context.Background()),
			[]string{"trace_id=" + testTraceID, "span_id=" + testSpanID},
		},
		{
			"invalid span context is skipped",
			trace.ContextWithSpanContext(context.Background(), trace.SpanContext{}),
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, a := range contextAttrs(tt.ctx) {
				got = append(got, a.Key+"="+a.Value.String())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("contextAttrs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextHandler_PreservesAttrs(t *testing.T) {
	var records []slog.Record
	h := &contextHandler{next: recordHandler{&records}}
	logger := slog.New(h).With("component", "test")

	logger.InfoContext(WithPlan(context.Background(), "p"), "msg")

	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	var keys []string
	records[0].Attrs(func(a slog.Attr) bool {
		keys = append(keys, a.Key)
		return true
	})
	if diff := cmp.Diff([]string{"plan"}, keys); diff != "" {
		t.Errorf("record attrs mismatch (-want +got):\n%s", diff)
	}
}

// recordHandler collects records. WithAttrs state is dropped.
type recordHandler struct {
	records *[]slog.Record
}

func (h recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h recordHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordHandler) WithGroup(string) slog.Handler      { return h }
