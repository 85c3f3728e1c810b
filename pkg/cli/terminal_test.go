package cli

import (
	"bytes"
	"os"
	"testing"
)

func TestIsTerminal_NonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) = true")
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("IsTerminal(regular file) = true")
	}
}

func TestStyler_Plain(t *testing.T) {
	s := NewStyler(&bytes.Buffer{})
	if s.Enabled() {
		t.Fatal("styler enabled for a buffer")
	}

	tests := []struct {
		got, want string
	}{
		{s.Pass(), "PASS"},
		{s.Fail(), "FAIL"},
		{s.Bold("x"), "x"},
		{s.Dim("y"), "y"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestStyler_Terminal(t *testing.T) {
	s := &Styler{tty: true}
	if s.Pass() != "\x1b[32m✓\x1b[0m" || s.Fail() != "\x1b[31m✗\x1b[0m" {
		t.Errorf("markers = %q %q", s.Pass(), s.Fail())
	}
	if s.Bold("x") != "\x1b[1mx\x1b[0m" {
		t.Errorf("Bold() = %q", s.Bold("x"))
	}
}
