package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	applyBoolDefaults(cfg)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Apply defaults
	ApplyDefaults(cfg)

	// Validate
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention IRVM_SECTION_FIELD (e.g., IRVM_ENGINE_MAX_CALL_DEPTH).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path starts from the defaults instead of a file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		// First load from file (this already applies defaults)
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format IRVM_SECTION_FIELD. Values that fail
// to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Engine overrides
	envInt("IRVM_ENGINE_MAX_CALL_DEPTH", &cfg.Engine.MaxCallDepth)
	envInt64("IRVM_ENGINE_MAX_INSTRUCTIONS", &cfg.Engine.MaxInstructions)
	envDuration("IRVM_ENGINE_EVAL_TIMEOUT", &cfg.Engine.EvalTimeout)
	envBool("IRVM_ENGINE_VALIDATE_ON_LOAD", &cfg.Engine.ValidateOnLoad)
	envBool("IRVM_ENGINE_ENABLE_TRACE", &cfg.Engine.EnableTrace)
	envBool("IRVM_ENGINE_STRICT_BUILTINS", &cfg.Engine.StrictBuiltins)

	// Policy overrides
	envString("IRVM_POLICY_PATH", &cfg.Policy.Path)
	envBool("IRVM_POLICY_WATCH", &cfg.Policy.Watch)
	envString("IRVM_POLICY_RELOAD_SCHEDULE", &cfg.Policy.ReloadSchedule)
	envDuration("IRVM_POLICY_DEBOUNCE_INTERVAL", &cfg.Policy.DebounceInterval)
	envInt64("IRVM_POLICY_MAX_FILE_SIZE", &cfg.Policy.MaxFileSize)
	envInt("IRVM_POLICY_CACHE_SIZE", &cfg.Policy.CacheSize)
	envBool("IRVM_POLICY_VALIDATION_ENABLED", &cfg.Policy.Validation.Enabled)
	envBool("IRVM_POLICY_VALIDATION_SCHEMA", &cfg.Policy.Validation.Schema)
	envBool("IRVM_POLICY_VALIDATION_STRICT", &cfg.Policy.Validation.Strict)

	// Telemetry overrides
	envString("IRVM_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("IRVM_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("IRVM_TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("IRVM_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("IRVM_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("IRVM_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("IRVM_TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	if val := os.Getenv("IRVM_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envInt64(key string, dst *int64) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
