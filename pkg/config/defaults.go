package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout    = 10 * time.Second
	DefaultMinThroughputGbps = 0.0
	DefaultExcludedType      = "MLSD"
)

// Environment variable names.
const (
	EnvLogSources = "GRIDSTAT_LOG_SOURCES"
	EnvStrict     = "GRIDSTAT_STRICT"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources:        []string{},
		ExcludedTypes:     []string{DefaultExcludedType},
		MinThroughputGbps: DefaultMinThroughputGbps,
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if sources := os.Getenv(EnvLogSources); sources != "" {
		c.LogSources = nil
		for _, s := range strings.Split(sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.LogSources = append(c.LogSources, s)
			}
		}
	}

	if strict := os.Getenv(EnvStrict); strict != "" {
		if v, err := strconv.ParseBool(strict); err == nil {
			c.Strict = v
		}
	}
}
