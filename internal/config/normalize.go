package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOracle()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizePlacement(); err != nil {
		return err
	}
	c.normalizeValidation()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	var err error
	if c.Paths.CacheDir, err = ExpandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOracle() {
	c.Oracle.APIKey = strings.TrimSpace(c.Oracle.APIKey)
	if c.Oracle.APIKey == "" {
		if value, ok := os.LookupEnv("LASTFM_API_KEY"); ok {
			c.Oracle.APIKey = strings.TrimSpace(value)
		}
	}
	c.Oracle.BaseURL = strings.TrimSpace(c.Oracle.BaseURL)
	if c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = defaultLastfmBaseURL
	}
	c.Oracle.WebURL = strings.TrimRight(strings.TrimSpace(c.Oracle.WebURL), "/")
	if c.Oracle.WebURL == "" {
		c.Oracle.WebURL = defaultLastfmWebURL
	}
	c.Oracle.UserAgent = strings.TrimSpace(c.Oracle.UserAgent)
	if c.Oracle.UserAgent == "" {
		c.Oracle.UserAgent = defaultOracleUserAgent
	}
	providers := make([]string, 0, len(c.Oracle.Providers))
	seen := make(map[string]struct{}, len(c.Oracle.Providers))
	for _, name := range c.Oracle.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		providers = append(providers, name)
	}
	c.Oracle.Providers = providers
}

func (c *Config) normalizeCache() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		name := sqliteCacheFileName
		if c.Cache.Backend == CacheBackendJSON {
			name = jsonCacheFileName
		}
		c.Cache.Path = filepath.Join(c.Paths.CacheDir, name)
	}
	var err error
	if c.Cache.Path, err = ExpandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizePlacement() error {
	c.Placement.ArtistFolder = strings.ToLower(strings.TrimSpace(c.Placement.ArtistFolder))
	if c.Placement.ArtistFolder == "" {
		c.Placement.ArtistFolder = defaultArtistFolder
	}
	if c.Placement.MaxPath == 0 {
		c.Placement.MaxPath = defaultMaxPath
	}
	c.Placement.MoveInvalid = strings.ToLower(strings.TrimSpace(c.Placement.MoveInvalid))
	var err error
	if c.Placement.DuplicateDir, err = ExpandPath(strings.TrimSpace(c.Placement.DuplicateDir)); err != nil {
		return fmt.Errorf("placement.duplicate_dir: %w", err)
	}
	if c.Placement.InvalidDir, err = ExpandPath(strings.TrimSpace(c.Placement.InvalidDir)); err != nil {
		return fmt.Errorf("placement.invalid_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeValidation() {
	out := c.Validation.ForbiddenCommentSubstrings[:0]
	for _, value := range c.Validation.ForbiddenCommentSubstrings {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, value)
	}
	c.Validation.ForbiddenCommentSubstrings = out
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = ExpandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
