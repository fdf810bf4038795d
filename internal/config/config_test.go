package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cutroom/internal/config"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("CUTROOM_SERVICE_URL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantProject := filepath.Join(tempHome, ".local", "share", "cutroom")
	if cfg.Paths.ProjectDir != wantProject {
		t.Fatalf("unexpected project dir: got %q want %q", cfg.Paths.ProjectDir, wantProject)
	}
	if cfg.Service.BaseURL != "http://127.0.0.1:7878" {
		t.Fatalf("unexpected service base url: %q", cfg.Service.BaseURL)
	}
	if cfg.Render.PollIntervalMS != 500 {
		t.Fatalf("unexpected poll interval: %d", cfg.Render.PollIntervalMS)
	}
	if cfg.Editor.HistoryLimit != 50 {
		t.Fatalf("unexpected history limit: %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Render.Format != "mp4" || cfg.Render.Codec != "h264" || cfg.Render.Quality != "high" {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.DatabasePath() != filepath.Join(wantProject, "cutroom.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	content := `
[service]
base_url = "https://render.example.com/"
request_timeout = 5

[render]
poll_interval_ms = 250
quality = "Ultra"

[editor]
history_limit = 10

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("resolved path = %q, want %q", resolved, configPath)
	}
	if cfg.Service.BaseURL != "https://render.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Service.BaseURL)
	}
	if cfg.ServiceTimeout() != 5*time.Second {
		t.Fatalf("unexpected service timeout: %s", cfg.ServiceTimeout())
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Editor.HistoryLimit != 10 {
		t.Fatalf("unexpected history limit: %d", cfg.Editor.HistoryLimit)
	}
	if cfg.Render.Quality != "ultra" {
		t.Fatalf("expected quality lowercased, got %q", cfg.Render.Quality)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging values lowercased, got %+v", cfg.Logging)
	}
}

func TestLoadHonoursServiceURLEnv(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[service]\nbase_url = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CUTROOM_SERVICE_URL", "http://10.0.0.5:9000")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.BaseURL != "http://10.0.0.5:9000" {
		t.Fatalf("expected env fallback for base url, got %q", cfg.Service.BaseURL)
	}
}

func TestValidateRejectsBadServiceURL(t *testing.T) {
	cfg := config.Default()
	cfg.Service.BaseURL = "ftp://render.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http scheme")
	} else if !strings.Contains(err.Error(), "service.base_url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownQuality(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Quality = "extreme"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown quality tier")
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[service\nbase_url = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[service]") {
		t.Fatalf("sample config missing [service] section: %q", content)
	}
}

func TestExpandPathResolvesHome(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	expanded, err := config.ExpandPath("~/projects")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if expanded != filepath.Join(tempHome, "projects") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}
}

func TestEnsureDirectoriesCreatesAll(t *testing.T) {
	tempDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(tempDir, "project")
	cfg.Paths.LogDir = filepath.Join(tempDir, "logs")
	cfg.Paths.PreviewDir = filepath.Join(tempDir, "previews")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ProjectDir, cfg.Paths.LogDir, cfg.Paths.PreviewDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected directory at %s", dir)
		}
	}
}
