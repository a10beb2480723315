package config

const (
	defaultConfigPath         = "~/.config/centrifuge/config.toml"
	defaultCacheDir           = "~/.cache/centrifuge"
	defaultCacheBackend       = CacheBackendSQLite
	defaultScanWorkers        = 4
	defaultLastfmBaseURL      = "https://ws.audioscrobbler.com/2.0/"
	defaultLastfmWebURL       = "https://www.last.fm"
	defaultOracleUserAgent    = "centrifuge/dev"
	defaultOracleTimeout      = 15
	defaultOracleConcurrency  = 2
	defaultOracleRate         = 4.0
	defaultOracleRetries      = 3
	defaultOracleFlushEvery   = 25
	defaultArtistFolder       = ArtistFolderName
	defaultMaxPath            = 255
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	sqliteCacheFileName       = "cache.db"
	jsonCacheFileName         = "cache.json"
	ProviderLastfm            = "lastfm"
	ProviderLastfmWeb         = "lastfm-web"
	CacheBackendSQLite        = "sqlite"
	CacheBackendJSON          = "json"
	ArtistFolderName          = "name"
	ArtistFolderInitial       = "initial"
	defaultProviderListLength = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	providers := make([]string, 0, defaultProviderListLength)
	providers = append(providers, ProviderLastfm, ProviderLastfmWeb)
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
		},
		Scan: Scan{
			Workers: defaultScanWorkers,
		},
		Oracle: Oracle{
			Providers:         providers,
			BaseURL:           defaultLastfmBaseURL,
			WebURL:            defaultLastfmWebURL,
			UserAgent:         defaultOracleUserAgent,
			TimeoutSeconds:    defaultOracleTimeout,
			MaxConcurrent:     defaultOracleConcurrency,
			RequestsPerSecond: defaultOracleRate,
			MaxRetries:        defaultOracleRetries,
			FlushEvery:        defaultOracleFlushEvery,
		},
		Cache: Cache{
			Backend: defaultCacheBackend,
		},
		Placement: Placement{
			ArtistFolder: defaultArtistFolder,
			MaxPath:      defaultMaxPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
