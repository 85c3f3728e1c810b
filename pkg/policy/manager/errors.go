package manager

import (
	"fmt"
	"strings"
)

// LoadError represents an error that occurred during policy loading.
// This includes file system errors like "file not found", "permission denied",
// or errors related to file size limits or encoding validation.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error that caused this load error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load policy file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load policy file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents an error that occurred while decoding an IR document.
type ParseError struct {
	// FilePath is the path to the file that failed to parse
	FilePath string

	// Format is the document format ("json" or "yaml")
	Format string

	// Message describes the parsing error
	Message string

	// Cause is the underlying decoder error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("parse error in %q (%s): %s: %v", e.FilePath, e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error in %q: %s: %v", e.FilePath, e.Message, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents an error that occurred during policy validation.
// This includes schema violations and semantic errors such as unknown
// functions or out-of-range string indices.
type ValidationError struct {
	// PolicyName is the registry name of the policy that failed validation
	PolicyName string

	// FilePath is the path to the policy file (if known)
	FilePath string

	// Message describes the validation error
	Message string

	// Cause is the underlying validation error, usually an *errors.ErrorList
	// from the ir/errors package
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := []string{"validation error"}

	if e.PolicyName != "" {
		parts = append(parts, fmt.Sprintf("in policy %q", e.PolicyName))
	}

	if e.FilePath != "" {
		parts = append(parts, fmt.Sprintf("(%s)", e.FilePath))
	}

	parts = append(parts, e.Message)

	return strings.Join(parts, " ")
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// RegistryError represents an error that occurred during registry operations.
// This includes nil policies and unknown names.
type RegistryError struct {
	// PolicyName is the name of the policy involved in the error
	PolicyName string

	// Operation is the operation that failed (e.g., "register", "unregister")
	Operation string

	// Message describes the registry error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.PolicyName != "" {
		return fmt.Sprintf("registry error for policy %q during %s: %s", e.PolicyName, e.Operation, e.Message)
	}
	return fmt.Sprintf("registry error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// ErrorList contains multiple errors that occurred during policy operations.
// This is used when loading multiple policies where some may succeed and others fail.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return sb.String()
}

// Add adds an error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// HasErrors returns true if the list contains any errors.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if there are no errors, the single error if there is one,
// or the ErrorList itself if there are multiple errors.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
