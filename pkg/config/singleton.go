package config

import (
	"fmt"
	"sync/atomic"
)

// active is the configuration of the running process. Commands that reload
// it swap the pointer; readers never see a partially applied config.
var active atomic.Pointer[Config]

// Load reads path with IRVM_* environment overrides, validates it and makes
// it the active configuration. An empty path loads the defaults. On error
// the previously active configuration stays in place.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		if path == "" {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}
	active.Store(cfg)
	return cfg, nil
}

// Current returns the active configuration, or nil before Load or Store.
func Current() *Config {
	return active.Load()
}

// Store makes cfg the active configuration. Passing nil clears it.
func Store(cfg *Config) {
	active.Store(cfg)
}

// MustCurrent is Current for code that runs after startup. It panics when no
// configuration is active.
func MustCurrent() *Config {
	cfg := active.Load()
	if cfg == nil {
		panic("config: no active configuration, call config.Load first")
	}
	return cfg
}
