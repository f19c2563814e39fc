package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var typeCodePattern = regexp.MustCompile(`^[A-Z]{4}$`)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and fills in webhook defaults.
// Log sources are optional here because they may be given on the command line.
func Validate(cfg *Config) error {
	for i, t := range cfg.ExcludedTypes {
		if !typeCodePattern.MatchString(t) {
			return fmt.Errorf("excluded_types[%d]: %q is not a four letter upper-case transfer type", i, t)
		}
	}

	if math.IsNaN(cfg.MinThroughputGbps) || math.IsInf(cfg.MinThroughputGbps, 0) {
		return errors.New("min_throughput_gbps: must be a finite number")
	}
	if cfg.MinThroughputGbps < 0 {
		return fmt.Errorf("min_throughput_gbps: must be >= 0, got %v", cfg.MinThroughputGbps)
	}

	for i, src := range cfg.LogSources {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("log_sources[%d]: empty path", i)
		}
	}

	for i := range cfg.Webhooks {
		if err := cfg.Webhooks[i].resolve(); err != nil {
			return fmt.Errorf("webhooks[%d] (%s): %w", i, cfg.Webhooks[i].DisplayName(), err)
		}
	}

	return nil
}
