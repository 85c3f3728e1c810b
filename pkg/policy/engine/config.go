package engine

import (
	"fmt"
	"time"
)

// Config contains configuration for the evaluation engine.
type Config struct {
	// MaxCallDepth bounds nested function calls, including recursion.
	// Default: 256.
	MaxCallDepth int

	// MaxInstructions bounds the number of statements one evaluation may
	// execute. Zero means unlimited.
	// Default: 0.
	MaxInstructions int64

	// EvalTimeout is the deadline applied to each Eval call. Zero means the
	// caller's context alone decides.
	// Default: 0.
	EvalTimeout time.Duration

	// ValidateOnLoad runs the semantic validator every time a policy is
	// loaded or reloaded.
	// Default: true.
	ValidateOnLoad bool

	// EnableTrace records plan, function and statement events for every
	// evaluation.
	// Warning: Enabling trace adds performance overhead.
	// Default: false.
	EnableTrace bool

	// StrictBuiltins rejects calls to built-ins the policy does not declare
	// in its static pool.
	// Default: false.
	StrictBuiltins bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxCallDepth:    256,
		MaxInstructions: 0,
		EvalTimeout:     0,
		ValidateOnLoad:  true,
		EnableTrace:     false,
		StrictBuiltins:  false,
	}
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("%w: max call depth must be positive", ErrInvalidConfig)
	}
	if c.MaxInstructions < 0 {
		return fmt.Errorf("%w: max instructions cannot be negative", ErrInvalidConfig)
	}
	if c.EvalTimeout < 0 {
		return fmt.Errorf("%w: eval timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WithMaxCallDepth sets the maximum call depth.
func (c *Config) WithMaxCallDepth(depth int) *Config {
	c.MaxCallDepth = depth
	return c
}

// WithMaxInstructions sets the instruction budget.
func (c *Config) WithMaxInstructions(max int64) *Config {
	c.MaxInstructions = max
	return c
}

// WithEvalTimeout sets the per-evaluation timeout.
func (c *Config) WithEvalTimeout(timeout time.Duration) *Config {
	c.EvalTimeout = timeout
	return c
}

// WithValidateOnLoad enables or disables load-time validation.
func (c *Config) WithValidateOnLoad(enabled bool) *Config {
	c.ValidateOnLoad = enabled
	return c
}

// WithTrace enables or disables evaluation tracing.
func (c *Config) WithTrace(enabled bool) *Config {
	c.EnableTrace = enabled
	return c
}

// WithStrictBuiltins enables or disables strict built-in checking.
func (c *Config) WithStrictBuiltins(enabled bool) *Config {
	c.StrictBuiltins = enabled
	return c
}
