package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styler decorates status output. Symbols and colours are used only when
// the writer is a terminal; otherwise plain words are printed so that
// piped output stays greppable.
type Styler struct {
	tty bool
}

// NewStyler creates a Styler for w.
func NewStyler(w io.Writer) *Styler {
	return &Styler{tty: IsTerminal(w) && os.Getenv("NO_COLOR") == ""}
}

// Enabled reports whether styling is active.
func (s *Styler) Enabled() bool {
	return s.tty
}

// Pass returns the marker for a passing item.
func (s *Styler) Pass() string {
	if s.tty {
		return "\x1b[32m✓\x1b[0m"
	}
	return "PASS"
}

// Fail returns the marker for a failing item.
func (s *Styler) Fail() string {
	if s.tty {
		return "\x1b[31m✗\x1b[0m"
	}
	return "FAIL"
}

// Bold emphasises text.
func (s *Styler) Bold(text string) string {
	if s.tty {
		return "\x1b[1m" + text + "\x1b[0m"
	}
	return text
}

// Dim de-emphasises text.
func (s *Styler) Dim(text string) string {
	if s.tty {
		return "\x1b[2m" + text + "\x1b[0m"
	}
	return text
}
