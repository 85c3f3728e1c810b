package engine

import (
	"errors"
	"fmt"

	"mercator-hq/irvm/pkg/ir"
)

// Common sentinel errors
var (
	// ErrNoPolicy indicates no policy is loaded in the engine.
	ErrNoPolicy = errors.New("no policy loaded")

	// ErrPlanNotFound indicates the requested plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("engine closed")

	// ErrCancelled indicates the evaluation context was cancelled or its
	// deadline passed.
	ErrCancelled = errors.New("evaluation cancelled")

	// ErrInstructionLimit indicates the evaluation executed more statements
	// than allowed.
	ErrInstructionLimit = errors.New("instruction limit exceeded")

	// ErrCallDepth indicates function calls nested deeper than allowed.
	ErrCallDepth = errors.New("call depth exceeded")

	// ErrConflict indicates an assignment or insertion that contradicts an
	// existing binding.
	ErrConflict = errors.New("conflict")

	// ErrTypeMismatch indicates a statement operand of the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnknownFunction indicates a call to a name that is neither a
	// function nor a built-in.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrBuiltin indicates a built-in reported an error.
	ErrBuiltin = errors.New("built-in error")

	// ErrInvalidProgram indicates a malformed statement, such as an empty
	// operand or an invalid number literal.
	ErrInvalidProgram = errors.New("invalid program")
)

// Exception is a fatal evaluation error. It aborts the whole invocation and
// carries the location of the statement that raised it.
type Exception struct {
	// Op is the statement type that raised the exception, e.g. "CallStmt".
	Op string

	// Location is the source position of the statement.
	Location ir.Location

	// Message describes the failure.
	Message string

	// Cause is one of the sentinels above, possibly wrapping a lower level
	// error.
	Cause error
}

// Error returns the error message.
func (e *Exception) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Location, e.Op, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Exception) Unwrap() error {
	return e.Cause
}

// Kind returns a short classification used as a metric label.
func (e *Exception) Kind() string {
	switch {
	case errors.Is(e.Cause, ErrCancelled):
		return "cancelled"
	case errors.Is(e.Cause, ErrInstructionLimit):
		return "instruction_limit"
	case errors.Is(e.Cause, ErrCallDepth):
		return "call_depth"
	case errors.Is(e.Cause, ErrConflict):
		return "conflict"
	case errors.Is(e.Cause, ErrTypeMismatch):
		return "type"
	case errors.Is(e.Cause, ErrUnknownFunction):
		return "unknown_function"
	case errors.Is(e.Cause, ErrBuiltin):
		return "builtin"
	case errors.Is(e.Cause, ir.ErrIndexOutOfRange):
		return "static_pool"
	default:
		return "internal"
	}
}

// PlanNotFoundError indicates an unknown plan name.
type PlanNotFoundError struct {
	Name       string
	Suggestion string
}

// Error returns the error message.
func (e *PlanNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("plan %q not found: %s", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("plan %q not found", e.Name)
}

// Unwrap returns ErrPlanNotFound.
func (e *PlanNotFoundError) Unwrap() error {
	return ErrPlanNotFound
}

// ValidationError indicates a policy failed load-time validation.
type ValidationError struct {
	Cause error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy validation failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ReloadError indicates a policy reload failure.
type ReloadError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("policy reload failed for %q: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Cause
}
