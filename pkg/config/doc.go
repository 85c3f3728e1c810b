// Package config provides configuration management for irvm.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("irvm.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("irvm.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention IRVM_SECTION_FIELD.
// For example:
//
//   - IRVM_ENGINE_MAX_CALL_DEPTH overrides engine.max_call_depth
//   - IRVM_POLICY_PATH overrides policy.path
//   - IRVM_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Active Configuration
//
// Load validates a file and makes it the process-wide configuration:
//
//	cfg, err := config.Load("irvm.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Later readers call config.Current. Library packages take an explicit
// *Config instead.
//
// # Example Configuration
//
//	engine:
//	  max_call_depth: 256
//	  max_instructions: 1000000
//	  eval_timeout: "100ms"
//
//	policy:
//	  path: "./policy.json"
//	  watch: true
//	  reload_schedule: "@every 5m"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
