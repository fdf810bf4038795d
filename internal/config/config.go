package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ProjectDir string `toml:"project_dir"`
	LogDir     string `toml:"log_dir"`
	PreviewDir string `toml:"preview_dir"`
}

// Service contains connection settings for the remote render service.
type Service struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Render contains render job defaults and monitoring cadence.
type Render struct {
	PollIntervalMS int    `toml:"poll_interval_ms"`
	Format         string `toml:"format"`
	Codec          string `toml:"codec"`
	Quality        string `toml:"quality"`
}

// Editor contains composition editing settings.
type Editor struct {
	HistoryLimit int `toml:"history_limit"`
}

// Simulator contains settings for the local render service simulator.
type Simulator struct {
	Bind   string `toml:"bind"`
	TickMS int    `toml:"tick_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cutroom.
//
// Configuration sections by subsystem:
//   - Paths: project database, log, and preview directories
//   - Service: render service endpoint and HTTP timeout
//   - Render: job defaults (format/codec/quality) and poll cadence
//   - Editor: history depth for undo/redo
//   - Simulator: local render simulator bind address and tick rate
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Service   Service   `toml:"service"`
	Render    Render    `toml:"render"`
	Editor    Editor    `toml:"editor"`
	Simulator Simulator `toml:"simulator"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cutroom/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/cutroom/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cutroom.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for CLI and simulator operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectDir, c.Paths.LogDir, c.Paths.PreviewDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the project SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.ProjectDir, "cutroom.db")
}

// LockPath returns the location of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ProjectDir, "cutroom.lock")
}

// ServiceTimeout returns the HTTP request timeout for render service calls.
func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(c.Service.RequestTimeout) * time.Second
}

// PollInterval returns the render status poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Render.PollIntervalMS) * time.Millisecond
}

// SimulatorTick returns the simulator's job progression cadence.
func (c *Config) SimulatorTick() time.Duration {
	return time.Duration(c.Simulator.TickMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
