// Package config provides configuration loading and validation for gridstat.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogSources lists log files, directories or glob patterns to read.
	LogSources []string `yaml:"log_sources"`

	// Strict aborts the run on the first malformed transfer stats line.
	Strict bool `yaml:"strict"`

	// ExcludedTypes lists extra transfer type codes that never produce records.
	// MLSD listings are excluded whether or not they appear here.
	ExcludedTypes []string `yaml:"excluded_types"`

	// MinThroughputGbps drops transfers whose rounded throughput is not above it.
	MinThroughputGbps float64 `yaml:"min_throughput_gbps"`

	// Webhooks receive the JSON report after each run.
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when lines were skipped (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	// ${VAR} and $VAR are expanded from the environment.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_issues" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
