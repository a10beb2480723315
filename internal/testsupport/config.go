package testsupport

import (
	"path/filepath"
	"testing"

	"centrifuge/internal/config"
)

// ConfigOption adjusts a test configuration. base is the per-test temp root.
type ConfigOption func(cfg *config.Config, base string)

// NewConfig returns defaults rooted in a fresh temp directory: cache under
// <base>/cache, a dummy API key, two workers and an unthrottled oracle.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Cache.Path = filepath.Join(cfg.Paths.CacheDir, "cache.db")
	cfg.Oracle.APIKey = "test"
	cfg.Oracle.RequestsPerSecond = 1000
	cfg.Scan.Workers = 2
	for _, opt := range opts {
		opt(&cfg, base)
	}
	return &cfg
}

// WithJSONCache switches the cache store to the JSON backend.
func WithJSONCache() ConfigOption {
	return func(cfg *config.Config, _ string) {
		cfg.Cache.Backend = config.CacheBackendJSON
		cfg.Cache.Path = filepath.Join(cfg.Paths.CacheDir, "cache.json")
	}
}

// WithDiversionRoots sets the duplicate and invalid roots to
// <base>/duplicates and <base>/invalid.
func WithDiversionRoots() ConfigOption {
	return func(cfg *config.Config, base string) {
		cfg.Placement.DuplicateDir = filepath.Join(base, "duplicates")
		cfg.Placement.InvalidDir = filepath.Join(base, "invalid")
	}
}

// WithForbiddenComments sets the forbidden comment substrings.
func WithForbiddenComments(substrings ...string) ConfigOption {
	return func(cfg *config.Config, _ string) {
		cfg.Validation.ForbiddenCommentSubstrings = substrings
	}
}

// BaseDir returns the temp root backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
