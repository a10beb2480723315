package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"centrifuge/internal/fingerprint"
	"centrifuge/internal/logging"
)

// jsonDocument is the on-disk layout of the JSON backend.
type jsonDocument struct {
	Version  int                         `json:"version"`
	Lookups  []LookupEntry               `json:"lookups"`
	Registry []fingerprint.RegistryEntry `json:"registry"`
}

// JSONStore keeps everything in memory and rewrites a single file on change.
type JSONStore struct {
	path     string
	logger   *slog.Logger
	mu       sync.RWMutex
	lookups  map[string]LookupEntry
	registry map[string]fingerprint.RegistryEntry // keyed by path
}

var _ Store = (*JSONStore)(nil)

// OpenJSON loads the cache file at path. A missing file starts empty; a
// corrupt one is logged and replaced on the next write.
func OpenJSON(path string, logger *slog.Logger) (*JSONStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path cannot be empty")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "cachestore")

	s := &JSONStore{
		path:     path,
		logger:   logger,
		lookups:  make(map[string]LookupEntry),
		registry: make(map[string]fingerprint.RegistryEntry),
	}
	if err := s.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load json cache", "cache_load_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "delete the file or run 'centrifuge cache clear'"),
			logging.String(logging.FieldImpact, "cached lookups will be fetched again"))
	}
	return s, nil
}

// Path returns the cache file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Close is a no-op; every mutation is already persisted.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetLookup(_ context.Context, key string) (LookupEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.lookups[key]
	return entry, ok, nil
}

func (s *JSONStore) PutLookups(_ context.Context, entries []LookupEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.lookups[entry.Key] = entry
	}
	if err := s.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	s.logger.Debug("persisted lookups", logging.Int("entry_count", len(entries)))
	return nil
}

func (s *JSONStore) ForgetLookup(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookups[key]; !ok {
		return false, nil
	}
	delete(s.lookups, key)
	if err := s.save(); err != nil {
		return false, fmt.Errorf("persist cache: %w", err)
	}
	return true, nil
}

func (s *JSONStore) ListLookups(context.Context) ([]LookupEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLookups(), nil
}

func (s *JSONStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = make(map[string]LookupEntry)
	s.registry = make(map[string]fingerprint.RegistryEntry)
	if err := s.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	s.logger.Debug("cleared json cache")
	return nil
}

func (s *JSONStore) RegistryEntries(context.Context) ([]fingerprint.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedRegistry(), nil
}

func (s *JSONStore) RecordPlacement(_ context.Context, fp, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[path] = fingerprint.RegistryEntry{Fingerprint: fp, Path: path, RecordedAt: time.Now().UTC()}
	if err := s.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

func (s *JSONStore) Stats(context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{Lookups: len(s.lookups), Registry: len(s.registry)}
	for _, entry := range s.lookups {
		switch entry.Status {
		case StatusMatched:
			stats.Matched++
		case StatusNotFound:
			stats.NotFound++
		}
	}
	return stats, nil
}

func (s *JSONStore) sortedLookups() []LookupEntry {
	out := make([]LookupEntry, 0, len(s.lookups))
	for _, entry := range s.lookups {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *JSONStore) sortedRegistry() []fingerprint.RegistryEntry {
	out := make([]fingerprint.RegistryEntry, 0, len(s.registry))
	for _, entry := range s.registry {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// load reads the cache from disk into memory.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	if doc.Version != schemaVersion {
		return fmt.Errorf("%w: file has version %d, expected %d", ErrSchemaMismatch, doc.Version, schemaVersion)
	}
	for _, entry := range doc.Lookups {
		if strings.TrimSpace(entry.Key) != "" {
			s.lookups[entry.Key] = entry
		}
	}
	for _, entry := range doc.Registry {
		if strings.TrimSpace(entry.Path) != "" {
			s.registry[entry.Path] = entry
		}
	}
	s.logger.Debug("loaded json cache",
		logging.Int("lookup_count", len(s.lookups)),
		logging.Int("registry_count", len(s.registry)),
		logging.String("path", s.path))
	return nil
}

// save writes the cache to disk atomically. Callers hold the write lock.
func (s *JSONStore) save() error {
	doc := jsonDocument{
		Version:  schemaVersion,
		Lookups:  s.sortedLookups(),
		Registry: s.sortedRegistry(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
