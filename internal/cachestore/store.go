package cachestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"centrifuge/internal/config"
	"centrifuge/internal/fingerprint"
	"centrifuge/internal/services"
)

// Lookup statuses.
const (
	StatusMatched  = "matched"
	StatusNotFound = "not_found"
)

// LookupEntry caches one metadata authority answer.
type LookupEntry struct {
	Key        string    `json:"key"`
	Status     string    `json:"status"`
	Artist     string    `json:"artist,omitempty"`
	Title      string    `json:"title,omitempty"`
	ArtistOnly bool      `json:"artist_only,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Stats summarizes the store contents.
type Stats struct {
	Lookups  int
	Matched  int
	NotFound int
	Registry int
}

// Store is the persistent key-value store behind the metadata cache and the
// duplicate registry.
type Store interface {
	GetLookup(ctx context.Context, key string) (LookupEntry, bool, error)
	PutLookups(ctx context.Context, entries []LookupEntry) error
	ForgetLookup(ctx context.Context, key string) (bool, error)
	ListLookups(ctx context.Context) ([]LookupEntry, error)
	Clear(ctx context.Context) error
	RegistryEntries(ctx context.Context) ([]fingerprint.RegistryEntry, error)
	RecordPlacement(ctx context.Context, fingerprint, path string) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Open returns the store selected by cfg.Cache.Backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "ensure directories", "", err)
	}
	switch cfg.Cache.Backend {
	case config.CacheBackendSQLite:
		return OpenSQLite(cfg.Cache.Path)
	case config.CacheBackendJSON:
		return OpenJSON(cfg.Cache.Path, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "cache", "open",
			fmt.Sprintf("unknown backend %q", cfg.Cache.Backend), nil)
	}
}
