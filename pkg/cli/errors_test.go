package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("format", "unknown output format")
	want := "config error in format: unknown output format"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError(t *testing.T) {
	base := errors.New("boom")
	err := NewCommandError("eval", base)

	if got := err.Error(); got != "command eval failed: boom" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, base) {
		t.Error("CommandError does not unwrap to its cause")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("x"), ExitFailure},
		{"command error", NewCommandError("test", errors.New("failures")), ExitFailure},
		{"config error", NewConfigError("format", "bad"), ExitUsage},
		{"wrapped config error", fmt.Errorf("flags: %w", NewConfigError("plan", "missing")), ExitUsage},
		{"command wrapping config", NewCommandError("eval", NewConfigError("input", "bad")), ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
