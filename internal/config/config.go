// Package config loads dynsql's runtime configuration from a small YAML
// document read once at startup via gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the handful of process-wide knobs a dynsql deployment
// may want to override.
type Config struct {
	// VariablePrefix overrides the default '@' variable-prefix rune.
	VariablePrefix string `yaml:"variable_prefix,omitempty"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level,omitempty"`
	// CacheCompiledBlueprints is read from and written to the YAML file
	// only; cmd/dynsql does not consult it and compiles its single
	// template once per run.
	CacheCompiledBlueprints bool `yaml:"cache_compiled_blueprints,omitempty"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		VariablePrefix:          "@",
		LogLevel:                "info",
		CacheCompiledBlueprints: true,
	}
}

// LoadConfig reads and parses a YAML config file, falling back to
// DefaultConfig's values for any field the file leaves unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}
	return cfg, nil
}

// PrefixRune returns VariablePrefix as a rune, defaulting to '@' if the
// field is empty or not a single rune.
func (c *Config) PrefixRune() rune {
	runes := []rune(c.VariablePrefix)
	if len(runes) != 1 {
		return '@'
	}
	return runes[0]
}
