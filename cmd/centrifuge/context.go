package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"centrifuge/internal/cachestore"
	"centrifuge/internal/config"
	"centrifuge/internal/logging"
	"centrifuge/internal/oracle"
	"centrifuge/internal/oracle/providers"
	"centrifuge/internal/services"
	"centrifuge/internal/validation"
)

// oracleFactory builds the metadata oracle of a run and the function that
// flushes and releases it.
type oracleFactory func(cfg *config.Config, store cachestore.Store, logger *slog.Logger) (validation.Oracle, func() error, error)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	newOracle oracleFactory
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		newOracle:    defaultOracle,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", resolved, err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "build logger", "", err)
	}
	return logger, nil
}

func defaultOracle(cfg *config.Config, store cachestore.Store, logger *slog.Logger) (validation.Oracle, func() error, error) {
	list, err := providers.FromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	o := oracle.New(store, list, oracle.Options{
		MaxConcurrent:     cfg.Oracle.MaxConcurrent,
		RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
		FlushEvery:        cfg.Oracle.FlushEvery,
		Logger:            logger,
	})
	closeFn := func() error {
		if err := o.Close(); err != nil {
			return err
		}
		logger.Debug("oracle closed", logging.Int64("lookups", o.Lookups()))
		return nil
	}
	return o, closeFn, nil
}

// skipConfigLoad marks commands that must run without a loadable config.
const skipConfigLoad = "skipConfigLoad"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func configError(op, format string, args ...any) error {
	return services.Wrap(services.ErrConfiguration, "config", op, fmt.Sprintf(format, args...), nil)
}
