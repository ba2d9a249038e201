package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pfbverify/internal/config"
	"pfbverify/internal/dspsr"
	"pfbverify/internal/logging"
	"pfbverify/internal/reportstore"
	"pfbverify/internal/runner"
)

type commandContext struct {
	configFlag  *string
	profileFlag *string
	verbose     *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	logger   *slog.Logger
	registry *runner.Registry
	store    *reportstore.Store
}

func newCommandContext(configFlag, profileFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		profileFlag: profileFlag,
		verbose:     verbose,
		registry:    runner.NewRegistry(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag), flagValue(c.profileFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	verbose := c.verbose != nil && *c.verbose
	logger, err := logging.NewFromConfig(cfg, verbose)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

// toolbox returns the dspsr runners, built once per process.
func (c *commandContext) toolbox() (*dspsr.Toolbox, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return dspsr.NewToolbox(c.registry, cfg, runner.WithLogger(logger)), nil
}

func (c *commandContext) reportStore() (*reportstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := reportstore.Open(cfg.ReportDBPath())
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func flagValue(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
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
