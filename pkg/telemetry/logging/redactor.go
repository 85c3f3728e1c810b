package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces the value of a redacted attribute.
const Redacted = "[REDACTED]"

// DefaultRedactKeys are attribute keys whose values never reach the log
// output. Evaluation input and data documents are included because they
// routinely carry credentials and personal data.
var DefaultRedactKeys = []string{
	"input",
	"data",
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
}

// Pattern names for the built-in value patterns.
const (
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
	PatternAPIKey      = "api_key"
	PatternEmail       = "email"
)

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// defaultPatterns are applied in order to every string attribute value.
var defaultPatterns = []redactPattern{
	{
		name:        PatternBearerToken,
		regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		replacement: "Bearer ***",
	},
	{
		name:        PatternPassword,
		regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*[^\s,;]+`),
		replacement: "$1=***",
	},
	{
		name:        PatternAPIKey,
		regex:       regexp.MustCompile(`(?i)(api[-_]?key)\s*[:=]\s*[a-zA-Z0-9\-_]+`),
		replacement: "$1=***",
	},
	{
		name:        PatternEmail,
		regex:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		replacement: "***@***",
	},
}

// Redactor removes sensitive values from log attributes.
type Redactor struct {
	keys     map[string]struct{}
	patterns []redactPattern
}

// NewRedactor creates a Redactor for the given keys. Keys are matched
// case-insensitively; an empty list selects DefaultRedactKeys.
func NewRedactor(keys []string) *Redactor {
	if len(keys) == 0 {
		keys = DefaultRedactKeys
	}
	r := &Redactor{
		keys:     make(map[string]struct{}, len(keys)),
		patterns: defaultPatterns,
	}
	for _, k := range keys {
		r.keys[strings.ToLower(k)] = struct{}{}
	}
	return r
}

// RedactString applies the value patterns to s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// IsSensitiveKey reports whether values under key are always redacted.
func (r *Redactor) IsSensitiveKey(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Attributes with a
// sensitive key are replaced wholesale; string and error values are
// scrubbed with the value patterns.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.SourceKey:
			return a
		}
	}

	if r.IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}
