package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// DisplayName is the webhook name, or its URL when unnamed.
func (wh WebhookConfig) DisplayName() string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

// Fires reports whether the webhook should be sent for a run.
// An empty trigger behaves as on_issues.
func (wh WebhookConfig) Fires(hasIssues bool) bool {
	switch wh.Trigger {
	case WebhookTriggerAlways:
		return true
	case WebhookTriggerNever:
		return false
	default:
		return hasIssues
	}
}

// Problems lists everything wrong with the endpoint definition, in a fixed order.
func (wh WebhookConfig) Problems() []string {
	var problems []string

	if wh.URL == "" {
		problems = append(problems, "url is required")
	} else if u, err := url.Parse(wh.URL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid url: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("url scheme must be http or https, got %q", u.Scheme))
	} else if u.Host == "" {
		problems = append(problems, "url must have a host")
	}

	switch wh.Trigger {
	case "", WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		problems = append(problems, fmt.Sprintf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger))
	}

	return problems
}

// resolve validates wh and fills in its token, trigger and timeout.
func (wh *WebhookConfig) resolve() error {
	if problems := wh.Problems(); len(problems) > 0 {
		return errors.New(problems[0])
	}

	wh.Token = expandEnvVar(wh.Token)
	if wh.Trigger == "" {
		wh.Trigger = WebhookTriggerOnIssues
	}
	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}
	return nil
}

// expandEnvVar replaces a whole-value ${VAR} or $VAR with the variable's value.
func expandEnvVar(s string) string {
	switch {
	case strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}"):
		return os.Getenv(s[2 : len(s)-1])
	case strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${"):
		return os.Getenv(s[1:])
	}
	return s
}
