package config

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
}

// Scan controls release discovery and model building.
type Scan struct {
	Workers int `toml:"workers"`
}

// Oracle contains configuration for the metadata authority lookups.
type Oracle struct {
	// Providers lists lookup providers in fallback order ("lastfm", "lastfm-web").
	Providers         []string `toml:"providers"`
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	WebURL            string   `toml:"web_url"`
	UserAgent         string   `toml:"user_agent"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	MaxConcurrent     int      `toml:"max_concurrent"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	MaxRetries        int      `toml:"max_retries"`
	// FlushEvery persists the lookup cache after this many new entries.
	FlushEvery int `toml:"flush_every"`
}

// Cache selects the persistent store for lookups and the duplicate registry.
type Cache struct {
	Backend string `toml:"backend"` // "sqlite" or "json"
	Path    string `toml:"path"`
}

// Placement contains configuration for destination layout and diversion.
type Placement struct {
	GroupByCategory bool   `toml:"group_by_category"`
	GroupByArtist   bool   `toml:"group_by_artist"`
	ArtistFolder    string `toml:"artist_folder"` // "name" or "initial"
	AllowCopy       bool   `toml:"allow_copy"`
	MaxPath         int    `toml:"max_path"`
	DuplicateDir    string `toml:"duplicate_dir"`
	InvalidDir      string `toml:"invalid_dir"`
	MoveInvalid     string `toml:"move_invalid"`
}

// Validation contains configuration for the rule battery.
type Validation struct {
	ForbiddenCommentSubstrings []string `toml:"forbidden_comment_substrings"`
	FullCodecNames             bool     `toml:"full_codec_names"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for centrifuge.
//
// Configuration sections by subsystem:
//   - Paths: cache directory
//   - Scan: worker pool sizing
//   - Oracle: metadata authority providers, credentials, and rate limits
//   - Cache: persistent store backend
//   - Placement: destination layout, duplicate and invalid roots
//   - Validation: forbidden comment substrings and codec naming
//   - Logging: log format, level, and optional file
type Config struct {
	Paths      Paths      `toml:"paths"`
	Scan       Scan       `toml:"scan"`
	Oracle     Oracle     `toml:"oracle"`
	Cache      Cache      `toml:"cache"`
	Placement  Placement  `toml:"placement"`
	Validation Validation `toml:"validation"`
	Logging    Logging    `toml:"logging"`
}
