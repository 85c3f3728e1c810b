package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultMaxCallDepth    = 256
	DefaultMaxInstructions = int64(0)
	DefaultValidateOnLoad  = true

	// Policy defaults
	DefaultPolicyPath              = "./policy.json"
	DefaultPolicyWatch             = false
	DefaultPolicyDebounceInterval  = 100 * time.Millisecond
	DefaultPolicyMaxFileSize       = int64(10 * 1024 * 1024) // 10MB
	DefaultPolicyCacheSize         = 16
	DefaultPolicyValidationEnabled = true
	DefaultPolicyValidationSchema  = true
	DefaultPolicyValidationStrict  = false

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsEnabled     = true
	DefaultMetricsNamespace   = "irvm"
	DefaultMetricsSubsystem   = "engine"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingServiceName = "irvm"
	DefaultTracingTimeout     = 10 * time.Second
)

// Default histogram buckets.
var (
	DefaultDurationBuckets    = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}
	DefaultInstructionBuckets = []float64{10, 100, 1000, 10000, 100000, 1000000}
)

// NewDefaultConfig returns a configuration with every field at its default.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	applyBoolDefaults(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// applyBoolDefaults presets the booleans that default to true. It runs
// before YAML decoding so that an explicit false in the file wins.
func applyBoolDefaults(cfg *Config) {
	cfg.Engine.ValidateOnLoad = DefaultValidateOnLoad
	cfg.Policy.Validation.Enabled = DefaultPolicyValidationEnabled
	cfg.Policy.Validation.Schema = DefaultPolicyValidationSchema
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Engine defaults
	if cfg.Engine.MaxCallDepth == 0 {
		cfg.Engine.MaxCallDepth = DefaultMaxCallDepth
	}

	// Policy defaults
	if cfg.Policy.Path == "" {
		cfg.Policy.Path = DefaultPolicyPath
	}
	if cfg.Policy.DebounceInterval == 0 {
		cfg.Policy.DebounceInterval = DefaultPolicyDebounceInterval
	}
	if cfg.Policy.MaxFileSize == 0 {
		cfg.Policy.MaxFileSize = DefaultPolicyMaxFileSize
	}
	if cfg.Policy.CacheSize == 0 {
		cfg.Policy.CacheSize = DefaultPolicyCacheSize
	}

	// Telemetry defaults
	applyTelemetryDefaults(&cfg.Telemetry)
}

// applyTelemetryDefaults applies default values to telemetry configuration.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if len(cfg.Metrics.InstructionBuckets) == 0 {
		cfg.Metrics.InstructionBuckets = append([]float64(nil), DefaultInstructionBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 && cfg.Tracing.Sampler == "ratio" {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}
