package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(backendURLEnv, "")
	t.Setenv(ntfyTopicEnv, "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	home := isolateHome(t)

	cfg, path, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected no config file")
	}
	if want := filepath.Join(home, ".config", "vid2manga", "config.toml"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Conversion.Language != "en" {
		t.Fatalf("language = %q", cfg.Conversion.Language)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("poll interval = %s", cfg.PollInterval())
	}
	if want := filepath.Join(home, ".local", "share", "vid2manga"); cfg.Paths.StateDir != want {
		t.Fatalf("state dir = %q, want %q", cfg.Paths.StateDir, want)
	}
	if cfg.HistoryDBPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("history path = %q", cfg.HistoryDBPath())
	}
}

func TestLoadParsesFile(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	body := `
[backend]
base_url = "https://convert.example.com/api/"
request_timeout = 5

[polling]
interval_seconds = 7

[conversion]
language = "Vietnamese"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Backend.BaseURL != "https://convert.example.com/api" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Fatalf("request timeout = %s", cfg.RequestTimeout())
	}
	if cfg.UploadTimeout() != 600*time.Second {
		t.Fatalf("upload timeout = %s", cfg.UploadTimeout())
	}
	if cfg.PollInterval() != 7*time.Second {
		t.Fatalf("poll interval = %s", cfg.PollInterval())
	}
	if cfg.Conversion.Language != "vi" {
		t.Fatalf("language = %q", cfg.Conversion.Language)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadUsesProjectFile(t *testing.T) {
	isolateHome(t)
	if err := os.WriteFile(projectConfigName, []byte("[polling]\ninterval_seconds = 3\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, _, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected project config to be found")
	}
	if cfg.Polling.IntervalSeconds != 3 {
		t.Fatalf("interval = %d", cfg.Polling.IntervalSeconds)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv(backendURLEnv, "http://backend.internal:9000/")
	t.Setenv(ntfyTopicEnv, "https://ntfy.sh/conversions")

	cfg, _, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://backend.internal:9000" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/conversions" {
		t.Fatalf("ntfy topic = %q", cfg.Notifications.NtfyTopic)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base url", func(c *Config) { c.Backend.BaseURL = "localhost:8000" }, "backend.base_url"},
		{"ftp base url", func(c *Config) { c.Backend.BaseURL = "ftp://host" }, "backend.base_url"},
		{"base url query", func(c *Config) { c.Backend.BaseURL = "http://host/?x=1" }, "backend.base_url"},
		{"zero interval", func(c *Config) { c.Polling.IntervalSeconds = 0 }, "polling.interval_seconds"},
		{"negative upload timeout", func(c *Config) { c.Backend.UploadTimeout = -1 }, "backend.upload_timeout"},
		{"language", func(c *Config) { c.Conversion.Language = "fr" }, "conversion.language"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"ntfy topic", func(c *Config) { c.Notifications.NtfyTopic = "conversions" }, "notifications.ntfy_topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not name %q", err, tt.want)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	isolateHome(t)
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample not found")
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("sample base url = %q", cfg.Backend.BaseURL)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "state", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
