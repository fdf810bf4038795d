package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	if err := c.validateSimulator(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService() error {
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		return errors.New("service.base_url must be set (or set CUTROOM_SERVICE_URL)")
	}
	parsed, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("service.base_url must include a host")
	}
	if c.Service.RequestTimeout <= 0 {
		return errors.New("service.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.PollIntervalMS <= 0 {
		return errors.New("render.poll_interval_ms must be positive")
	}
	if c.Render.Format == "" {
		return errors.New("render.format must be set")
	}
	if c.Render.Codec == "" {
		return errors.New("render.codec must be set")
	}
	switch c.Render.Quality {
	case "low", "medium", "high", "ultra":
	default:
		return fmt.Errorf("render.quality must be one of low, medium, high, ultra; got %q", c.Render.Quality)
	}
	return nil
}

func (c *Config) validateEditor() error {
	if c.Editor.HistoryLimit <= 0 {
		return errors.New("editor.history_limit must be positive")
	}
	return nil
}

func (c *Config) validateSimulator() error {
	if strings.TrimSpace(c.Simulator.Bind) == "" {
		return errors.New("simulator.bind must be set")
	}
	if c.Simulator.TickMS <= 0 {
		return errors.New("simulator.tick_ms must be positive")
	}
	return nil
}
