package errors

import (
	"strings"
	"testing"

	"mercator-hq/irvm/pkg/ir"
)

func TestError_Format(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeSemantic,
		Message:    "unknown function 'g0.data.x.allw'",
		Location:   ir.Location{File: "x.rego", Row: 4, Col: 1},
		Context:    "plan x/allow",
		Suggestion: "Did you mean 'g0.data.x.allow'?",
	}

	got := err.Error()
	for _, want := range []string{
		"[semantic] unknown function",
		"--> x.rego:4:1",
		"in plan x/allow",
		"= suggestion: Did you mean",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestErrorList(t *testing.T) {
	el := NewErrorList()
	if el.ToError() != nil {
		t.Fatal("ToError() on empty list != nil")
	}

	el.AddError(ErrorTypeSchema, "missing plans", ir.Location{})
	el.AddErrorWithSuggestion(ErrorTypeSemantic, "bad index", ir.Location{Row: 2}, "check the pool")

	other := NewErrorList()
	other.AddError(ErrorTypeSemantic, "duplicate plan", ir.Location{})
	el.Merge(other)

	if el.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", el.Count())
	}
	if !el.HasErrorType(ErrorTypeSchema) || el.HasErrorType(ErrorTypeIO) {
		t.Error("HasErrorType() mismatch")
	}
	if got := len(el.ByType(ErrorTypeSemantic)); got != 2 {
		t.Errorf("ByType(semantic) = %d, want 2", got)
	}
	if !strings.HasPrefix(el.Error(), "Found 3 error(s)") {
		t.Errorf("Error() = %q", el.Error())
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"g0.data.x.allow", "g0.data.x.deny", "plus"}

	tests := []struct {
		unknown string
		want    string
	}{
		{"g0.data.x.allw", "Did you mean 'g0.data.x.allow'?"},
		{"plsu", "Did you mean 'plus'?"},
		{"completely_unrelated_name", "Valid names: g0.data.x.allow, g0.data.x.deny, plus"},
	}

	for _, tt := range tests {
		t.Run(tt.unknown, func(t *testing.T) {
			if got := Suggest(tt.unknown, candidates); got != tt.want {
				t.Errorf("Suggest(%q) = %q, want %q", tt.unknown, got, tt.want)
			}
		})
	}

	if got := Suggest("x", nil); got != "" {
		t.Errorf("Suggest() with no candidates = %q", got)
	}
}
