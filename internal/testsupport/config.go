// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"docket/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The control API binds an ephemeral port and intake is disabled unless an
// option turns it on.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.APIToken = "test-token"
	cfg.Intake.Enabled = false
	cfg.Queue.RetryDelay = 10
	cfg.Queue.DispatchInterval = 1
	cfg.Queue.PollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithIntake enables inbox scanning at the given cadence in seconds.
func WithIntake(scanIntervalSeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Intake.Enabled = true
		cfg.Intake.ScanInterval = scanIntervalSeconds
	}
}

// WithQueueTuning overrides the concurrency cap and retry budget.
func WithQueueTuning(maxConcurrent, maxRetries int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.MaxConcurrent = maxConcurrent
		cfg.Queue.MaxRetries = maxRetries
	}
}

// WithExtractor points the extractor client at a test server.
func WithExtractor(baseURL, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Extractor.BaseURL = baseURL
		cfg.Extractor.APIKey = apiKey
	}
}
