package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"table", FormatTable, false},
		{"", FormatText, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
		var cfgErr *ConfigError
		if tt.wantErr && !errors.As(err, &cfgErr) {
			t.Errorf("ParseOutputFormat(%q) error is %T, want *ConfigError", tt.in, err)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatTable, "*cli.TableFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		f := NewFormatter(tt.format)
		if got := typeName(f); got != tt.want {
			t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *TextFormatter:
		return "*cli.TextFormatter"
	case *JSONFormatter:
		return "*cli.JSONFormatter"
	case *TableFormatter:
		return "*cli.TableFormatter"
	}
	return "unknown"
}

func TestTextFormatter(t *testing.T) {
	f := &TextFormatter{}
	out, err := f.Format("hello")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "hello\n" {
		t.Errorf("Format() = %q", out)
	}

	var buf bytes.Buffer
	if err := f.FormatTo(&buf, 42); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "42\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	data := map[string]interface{}{"plan": "a/b", "results": []int{1}}

	compact, err := (&JSONFormatter{}).Format(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(compact) != `{"plan":"a/b","results":[1]}` {
		t.Errorf("Format() = %s", compact)
	}

	var buf bytes.Buffer
	if err := (&JSONFormatter{Indent: true}).FormatTo(&buf, data); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"plan\": \"a/b\",\n  \"results\": [\n    1\n  ]\n}\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}
}

func TestTableFormatter(t *testing.T) {
	table := &Table{
		Headers: []string{"PLAN", "BLOCKS", "NOTE"},
		Rows: [][]string{
			{"authz/allow", "3", "ok"},
			{"日本/plan", "12", "wide"},
		},
	}

	out, err := (&TableFormatter{}).Format(table)
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"PLAN         BLOCKS  NOTE",
		"-----------  ------  ----",
		"authz/allow  3       ok",
		"日本/plan    12      wide",
		"",
	}, "\n")
	if string(out) != want {
		t.Errorf("Format() =\n%s\nwant\n%s", out, want)
	}
}

func TestTableFormatter_NotTabular(t *testing.T) {
	if _, err := (&TableFormatter{}).Format("plain"); err == nil {
		t.Error("Format() of a non-tabular value succeeded")
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	out, err := (&TableFormatter{Padding: 1}).Format(&Table{Rows: [][]string{{"a", "b"}, {"ccc", "d"}}})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "a   b\nccc d\n" {
		t.Errorf("Format() = %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a long plan name", 8, "a long …"},
		{"日本語テキスト", 7, "日本語…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
