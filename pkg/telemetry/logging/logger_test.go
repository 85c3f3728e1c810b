package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/irvm/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid JSON config", Config{Level: "info", Format: "json", Redact: true}, false},
		{"valid text config", Config{Level: "debug", Format: "text"}, false},
		{"valid console config", Config{Level: "warn", Format: "console", Redact: true}, false},
		{"defaults", Config{}, false},
		{"invalid log level", Config{Level: "invalid", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "invalid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{Level: "debug", Format: "json", AddSource: true})
	if cfg.Level != "debug" || cfg.Format != "json" || !cfg.AddSource || !cfg.Redact {
		t.Errorf("FromConfig() = %+v", cfg)
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, err := New(Config{Level: tt.level, Format: "json", Writer: buf})
			if err != nil {
				t.Fatal(err)
			}
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			lines := decodeLines(t, buf)
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d: %s", len(lines), len(tt.want), buf)
			}
			for i, line := range lines {
				if line["level"] != tt.want[i] {
					t.Errorf("line %d level = %v, want %s", i, line["level"], tt.want[i])
				}
			}
		})
	}
}

func TestLogger_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "text", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("policy loaded", "policy", "authz")

	out := buf.String()
	if !strings.Contains(out, `msg="policy loaded"`) || !strings.Contains(out, "policy=authz") {
		t.Errorf("text output = %q", out)
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "debug", Format: "console", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.With("component", "engine").WithGroup("eval").Warn("slow evaluation", "plan", "a/b", "note", "two words")

	out := buf.String()
	for _, want := range []string{"WARN ", "slow evaluation", " component=engine", " eval.plan=a/b", ` eval.note="two words"`} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q does not contain %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("console output to a buffer is colored: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("console output is not newline terminated: %q", out)
	}
}

func TestLogger_Redaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Redact: true, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("evaluating",
		"input", map[string]any{"user": "alice"},
		"header", "Bearer abc.def",
		"err", errors.New("login failed for bob@example.com"),
		"plan", "authz/allow",
	)

	line := decodeLines(t, buf)[0]
	if line["input"] != Redacted {
		t.Errorf("input = %v, want %s", line["input"], Redacted)
	}
	if line["header"] != "Bearer ***" {
		t.Errorf("header = %v", line["header"])
	}
	if line["err"] != "login failed for ***@***" {
		t.Errorf("err = %v", line["err"])
	}
	if line["plan"] != "authz/allow" {
		t.Errorf("plan = %v", line["plan"])
	}
	if line["msg"] != "evaluating" {
		t.Errorf("msg = %v", line["msg"])
	}
}

func TestLogger_RedactionDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("evaluating", "token", "t0k3n")

	if got := decodeLines(t, buf)[0]["token"]; got != "t0k3n" {
		t.Errorf("token = %v, want unredacted", got)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithEvaluationID(context.Background(), "eval-1")
	ctx = WithPlan(ctx, "authz/allow")
	ctx = WithPolicy(ctx, "authz", "abc123")
	ctx = withTestSpan(ctx)
	logger.InfoContext(ctx, "evaluated")
	logger.Info("no context")

	lines := decodeLines(t, buf)
	want := map[string]string{
		"evaluation_id": "eval-1",
		"plan":          "authz/allow",
		"policy":        "authz",
		"policy_digest": "abc123",
		"trace_id":      testTraceID,
		"span_id":       testSpanID,
	}
	for k, v := range want {
		if lines[0][k] != v {
			t.Errorf("%s = %v, want %s", k, lines[0][k], v)
		}
		if _, ok := lines[1][k]; ok {
			t.Errorf("record without context has %s", k)
		}
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() logger is enabled for errors")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    LogFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"TEXT", FormatText, false},
		{"", FormatText, false},
		{"console", FormatConsole, false},
		{"xml", FormatText, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestWithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	if got := WithContext(logger, context.Background()); got != logger {
		t.Error("WithContext() with an empty context returned a new logger")
	}

	WithContext(logger, WithPlan(context.Background(), "authz/allow")).Info("bound")
	if got := decodeLines(t, buf)[0]["plan"]; got != "authz/allow" {
		t.Errorf("plan = %v", got)
	}
}
