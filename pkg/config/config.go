package config

import "time"

// Config is the root configuration structure for irvm.
// It contains the engine limits, the policy source and the telemetry
// settings.
type Config struct {
	// Engine contains evaluation limits and behaviour switches.
	Engine EngineConfig `yaml:"engine"`

	// Policy contains the policy source location, watch mode and scheduled
	// reload settings.
	Policy PolicyConfig `yaml:"policy"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains configuration for the evaluation engine.
type EngineConfig struct {
	// MaxCallDepth bounds nested function calls.
	// Default: 256
	MaxCallDepth int `yaml:"max_call_depth"`

	// MaxInstructions bounds the statements one evaluation may execute
	// (0 = unlimited).
	// Default: 0
	MaxInstructions int64 `yaml:"max_instructions"`

	// EvalTimeout is the deadline for a single evaluation (0 = none).
	// Default: 0
	EvalTimeout time.Duration `yaml:"eval_timeout"`

	// ValidateOnLoad runs the semantic validator on every load and reload.
	// Default: true
	ValidateOnLoad bool `yaml:"validate_on_load"`

	// EnableTrace records a trace for every evaluation.
	// Default: false
	EnableTrace bool `yaml:"enable_trace"`

	// StrictBuiltins rejects calls to built-ins the policy does not declare.
	// Default: false
	StrictBuiltins bool `yaml:"strict_builtins"`
}

// PolicyConfig contains configuration for the policy source.
type PolicyConfig struct {
	// Path is the IR document (.json, .yaml, .yml) or a directory of them.
	// Default: "./policy.json"
	Path string `yaml:"path"`

	// Watch enables automatic reloading when policy files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// ReloadSchedule is an optional cron spec for periodic reloads,
	// e.g. "@every 5m" or "0 * * * *". Empty disables scheduled reloads.
	ReloadSchedule string `yaml:"reload_schedule"`

	// DebounceInterval is the quiet period before a file change triggers a
	// reload.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// MaxFileSize is the maximum policy file size in bytes.
	// Default: 10MB
	MaxFileSize int64 `yaml:"max_file_size"`

	// CacheSize is the number of decoded documents kept by the file source.
	// Default: 16
	CacheSize int `yaml:"cache_size"`

	// Validation contains policy validation settings.
	Validation PolicyValidationConfig `yaml:"validation"`
}

// PolicyValidationConfig contains configuration for policy validation.
type PolicyValidationConfig struct {
	// Enabled controls whether policy validation is performed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schema additionally validates documents against the JSON schema
	// before decoding.
	// Default: true
	Schema bool `yaml:"schema"`

	// Strict stops at the first invalid file of a directory instead of
	// loading the valid ones.
	// Default: false
	Strict bool `yaml:"strict"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "irvm"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for evaluation duration
	// (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1]
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// InstructionBuckets defines histogram buckets for executed statements.
	// Default: [10, 100, 1000, 10000, 100000, 1000000]
	InstructionBuckets []float64 `yaml:"instruction_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio", "parent"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "irvm"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
