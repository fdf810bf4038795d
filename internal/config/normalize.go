package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeService()
	c.normalizeRender()
	c.normalizeEditor()
	c.normalizeSimulator()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		c.Paths.ProjectDir = defaultProjectDir
	}
	if c.Paths.ProjectDir, err = expandPath(c.Paths.ProjectDir); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PreviewDir) == "" {
		c.Paths.PreviewDir = defaultPreviewDir
	}
	if c.Paths.PreviewDir, err = expandPath(c.Paths.PreviewDir); err != nil {
		return fmt.Errorf("paths.preview_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeService() {
	c.Service.BaseURL = strings.TrimSpace(c.Service.BaseURL)
	if c.Service.BaseURL == "" {
		if value, ok := os.LookupEnv("CUTROOM_SERVICE_URL"); ok {
			c.Service.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = defaultServiceBaseURL
	}
	c.Service.BaseURL = strings.TrimRight(c.Service.BaseURL, "/")
	if c.Service.RequestTimeout <= 0 {
		c.Service.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeRender() {
	if c.Render.PollIntervalMS <= 0 {
		c.Render.PollIntervalMS = defaultPollIntervalMS
	}
	c.Render.Format = strings.ToLower(strings.TrimSpace(c.Render.Format))
	if c.Render.Format == "" {
		c.Render.Format = defaultRenderFormat
	}
	c.Render.Codec = strings.ToLower(strings.TrimSpace(c.Render.Codec))
	if c.Render.Codec == "" {
		c.Render.Codec = defaultRenderCodec
	}
	c.Render.Quality = strings.ToLower(strings.TrimSpace(c.Render.Quality))
	if c.Render.Quality == "" {
		c.Render.Quality = defaultRenderQuality
	}
}

func (c *Config) normalizeEditor() {
	if c.Editor.HistoryLimit <= 0 {
		c.Editor.HistoryLimit = defaultHistoryLimit
	}
}

func (c *Config) normalizeSimulator() {
	c.Simulator.Bind = strings.TrimSpace(c.Simulator.Bind)
	if c.Simulator.Bind == "" {
		c.Simulator.Bind = defaultSimulatorBind
	}
	if c.Simulator.TickMS <= 0 {
		c.Simulator.TickMS = defaultSimulatorTick
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
