package testsupport

import (
	"testing"

	"centrifuge/internal/cachestore"
	"centrifuge/internal/config"
)

// MustOpenStore opens the configured cache store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) cachestore.Store {
	t.Helper()

	store, err := cachestore.Open(cfg, nil)
	if err != nil {
		t.Fatalf("cachestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
