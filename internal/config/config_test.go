package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docket/internal/config"
)

func TestDefaultQueueSettings(t *testing.T) {
	cfg := config.Default()
	if cfg.Queue.MaxConcurrent != 3 || cfg.Queue.MaxRetries != 3 || cfg.Queue.RetryDelay != 1000 {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Queue)
	}
	if cfg.Queue.RetryBackoffCap != 0 {
		t.Fatalf("expected unbounded backoff by default, got %d", cfg.Queue.RetryBackoffCap)
	}
	if !cfg.Intake.Enabled {
		t.Fatal("expected intake enabled by default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config to report exists=false")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Queue.MaxConcurrent != 3 {
		t.Fatalf("expected default max_concurrent, got %d", cfg.Queue.MaxConcurrent)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"
log_dir = "` + dir + `/logs"
inbox_dir = "` + dir + `/inbox"

[queue]
max_concurrent = 2
max_retries = 1
retry_delay = 100

[intake]
extensions = ["PDF", " .png "]

[extractor]
base_url = "https://extract.example.com/"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Queue.MaxConcurrent != 2 || cfg.Queue.MaxRetries != 1 || cfg.Queue.RetryDelay != 100 {
		t.Fatalf("unexpected queue config: %+v", cfg.Queue)
	}
	if cfg.Extractor.BaseURL != "https://extract.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Extractor.BaseURL)
	}
	if !cfg.AcceptsExtension(".pdf") || !cfg.AcceptsExtension(".PNG") {
		t.Fatalf("expected normalized extensions, got %v", cfg.Intake.Extensions)
	}
	if cfg.AcceptsExtension(".exe") {
		t.Fatal("unexpected extension accepted")
	}
}

func TestLoadRejectsInvalidQueueSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[queue]
max_concurrent = 0
retry_delay = -5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "max_concurrent") {
		t.Fatalf("expected max_concurrent mentioned, got %v", err)
	}
}

func TestLoadRejectsBackoffCapBelowBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[queue]
retry_delay = 1000
retry_backoff_cap = 500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for cap below base delay")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[queue]") {
		t.Fatal("expected sample to contain [queue] section")
	}
}
