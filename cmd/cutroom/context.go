package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/project"
	"cutroom/internal/renderclient"
	"cutroom/internal/timeline"
)

type commandContext struct {
	configFlag  *string
	serviceFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serviceFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		serviceFlag: serviceFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) serviceBaseURL(cfg *config.Config) string {
	if c.serviceFlag != nil && strings.TrimSpace(*c.serviceFlag) != "" {
		return strings.TrimSpace(*c.serviceFlag)
	}
	return cfg.Service.BaseURL
}

// withClient runs fn against a connected render service client.
func (c *commandContext) withClient(fn func(*config.Config, *renderclient.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	client, err := renderclient.New(
		renderclient.Config{BaseURL: c.serviceBaseURL(cfg), Timeout: cfg.ServiceTimeout()},
		renderclient.WithLogger(logging.NewNop()),
	)
	if err != nil {
		return fmt.Errorf("connect to render service: %w", err)
	}
	defer client.Close()
	return fn(cfg, client)
}

// withStore runs fn against the project database.
func (c *commandContext) withStore(fn func(*config.Config, *project.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := project.Open(cfg)
	if err != nil {
		return fmt.Errorf("open project store: %w", err)
	}
	defer func() { _ = store.Close() }()
	return fn(cfg, store)
}

// withSession runs fn while holding the single-writer editing session.
// Commands that mutate the stored document go through here.
func (c *commandContext) withSession(fn func(*config.Config, *project.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := project.NewSessionLock(cfg.LockPath())
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return c.withStore(fn)
}

// loadEditor materializes a stored composition into a document editor.
func loadEditor(cmd *cobra.Command, store *project.Store, cfg *config.Config, compositionID string) (*timeline.Editor, error) {
	record, err := store.GetComposition(cmd.Context(), compositionID)
	if err != nil {
		return nil, fmt.Errorf("load composition %s: %w", compositionID, err)
	}
	editor := timeline.NewEditor(timeline.WithHistoryLimit(cfg.Editor.HistoryLimit))
	editor.Load(record.Document.Snapshot())
	return editor, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
