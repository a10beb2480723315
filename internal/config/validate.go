package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateOracle(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validatePlacement(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScan() error {
	if c.Scan.Workers <= 0 {
		return errors.New("scan.workers must be positive")
	}
	return nil
}

func (c *Config) validateOracle() error {
	if len(c.Oracle.Providers) == 0 {
		return errors.New("oracle.providers must list at least one provider")
	}
	for _, name := range c.Oracle.Providers {
		switch name {
		case ProviderLastfm, ProviderLastfmWeb:
		default:
			return fmt.Errorf("oracle.providers: unknown provider %q", name)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"oracle.timeout_seconds": c.Oracle.TimeoutSeconds,
		"oracle.max_concurrent":  c.Oracle.MaxConcurrent,
		"oracle.flush_every":     c.Oracle.FlushEvery,
	}); err != nil {
		return err
	}
	if c.Oracle.RequestsPerSecond <= 0 {
		return errors.New("oracle.requests_per_second must be positive")
	}
	if c.Oracle.MaxRetries < 0 {
		return errors.New("oracle.max_retries must not be negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendJSON:
		return nil
	default:
		return fmt.Errorf("cache.backend must be %q or %q", CacheBackendSQLite, CacheBackendJSON)
	}
}

func (c *Config) validatePlacement() error {
	switch c.Placement.ArtistFolder {
	case ArtistFolderName, ArtistFolderInitial:
	default:
		return fmt.Errorf("placement.artist_folder must be %q or %q", ArtistFolderName, ArtistFolderInitial)
	}
	if c.Placement.MaxPath < 32 {
		return errors.New("placement.max_path must be at least 32")
	}
	if c.Placement.MoveInvalid != "" && c.Placement.InvalidDir == "" {
		return errors.New("placement.move_invalid requires placement.invalid_dir")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
