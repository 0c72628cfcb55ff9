package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if c.Paths.APIBind == "" {
		problems = append(problems, "paths.api_bind is required")
	}
	if c.Queue.MaxConcurrent <= 0 {
		problems = append(problems, "queue.max_concurrent must be a positive integer")
	}
	if c.Queue.MaxRetries < 0 {
		problems = append(problems, "queue.max_retries must not be negative")
	}
	if c.Queue.RetryDelay <= 0 {
		problems = append(problems, "queue.retry_delay must be a positive millisecond value")
	}
	if c.Queue.RetryBackoffCap < 0 {
		problems = append(problems, "queue.retry_backoff_cap must not be negative")
	}
	if c.Queue.RetryBackoffCap > 0 && c.Queue.RetryBackoffCap < c.Queue.RetryDelay {
		problems = append(problems, "queue.retry_backoff_cap must not be below queue.retry_delay")
	}
	if c.Intake.Enabled {
		if c.Paths.InboxDir == "" {
			problems = append(problems, "paths.inbox_dir is required when intake is enabled")
		}
		if c.Intake.ScanInterval <= 0 {
			problems = append(problems, "intake.scan_interval must be a positive second value")
		}
		if len(c.Intake.Extensions) == 0 {
			problems = append(problems, "intake.extensions must list at least one file type")
		}
	}
	if c.Extractor.TimeoutSeconds <= 0 {
		problems = append(problems, "extractor.timeout_seconds must be positive")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
