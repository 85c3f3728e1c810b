package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *NewDefaultConfig()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithMaxCallDepth sets the engine call depth limit.
func (b *ConfigBuilder) WithMaxCallDepth(depth int) *ConfigBuilder {
	b.cfg.Engine.MaxCallDepth = depth
	return b
}

// WithEvalTimeout sets the engine evaluation timeout.
func (b *ConfigBuilder) WithEvalTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Engine.EvalTimeout = d
	return b
}

// WithPolicyPath sets the policy path.
func (b *ConfigBuilder) WithPolicyPath(path string) *ConfigBuilder {
	b.cfg.Policy.Path = path
	return b
}

// WithReloadSchedule sets the scheduled reload spec.
func (b *ConfigBuilder) WithReloadSchedule(spec string) *ConfigBuilder {
	b.cfg.Policy.ReloadSchedule = spec
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithTracingEnabled enables or disables tracing with an endpoint.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	return b
}
