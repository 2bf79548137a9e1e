// Package config loads the optional disk watchdog configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a single DiskWatchdog resource from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	if cfg.APIVersion != "" && cfg.APIVersion != APIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected %s)", cfg.APIVersion, APIVersion)
	}

	switch cfg.Kind {
	case KindDiskWatchdog:
	case "":
		return nil, fmt.Errorf("document missing 'kind' field")
	default:
		return nil, fmt.Errorf("unknown kind: %s", cfg.Kind)
	}

	return &cfg, nil
}

// Defaults applies default values to the configuration.
func (c *Config) Defaults() {
	if c.Spec.Debug {
		c.Spec.Verbose = true
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Spec.File == "" {
		return fmt.Errorf("spec.file is required")
	}
	if c.Spec.Interval != nil && *c.Spec.Interval <= 0 {
		return fmt.Errorf("spec.interval must be positive, got %s", c.Spec.Interval.Duration())
	}
	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements custom YAML marshaling for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	if d == 0 {
		return "", nil
	}
	return time.Duration(d).String(), nil
}
