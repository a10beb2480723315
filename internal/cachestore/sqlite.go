package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"centrifuge/internal/fingerprint"
)

// SQLiteStore persists lookups and the duplicate registry in SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetLookup returns the cached entry for key.
func (s *SQLiteStore) GetLookup(ctx context.Context, key string) (LookupEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cache_key, status, artist, title, artist_only, provider, fetched_at
           FROM lookups WHERE cache_key = ?`, key)
	entry, err := scanLookup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LookupEntry{}, false, nil
	}
	if err != nil {
		return LookupEntry{}, false, fmt.Errorf("get lookup: %w", err)
	}
	return entry, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLookup(row rowScanner) (LookupEntry, error) {
	var (
		entry      LookupEntry
		artistOnly int
		fetchedAt  string
	)
	if err := row.Scan(&entry.Key, &entry.Status, &entry.Artist, &entry.Title, &artistOnly, &entry.Provider, &fetchedAt); err != nil {
		return LookupEntry{}, err
	}
	entry.ArtistOnly = artistOnly != 0
	if ts, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		entry.FetchedAt = ts
	}
	return entry, nil
}

// PutLookups upserts entries in one transaction.
func (s *SQLiteStore) PutLookups(ctx context.Context, entries []LookupEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lookup tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lookups (cache_key, status, artist, title, artist_only, provider, fetched_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(cache_key) DO UPDATE SET
            status = excluded.status,
            artist = excluded.artist,
            title = excluded.title,
            artist_only = excluded.artist_only,
            provider = excluded.provider,
            fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("prepare lookup upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		artistOnly := 0
		if entry.ArtistOnly {
			artistOnly = 1
		}
		if _, err := stmt.ExecContext(ctx, entry.Key, entry.Status, entry.Artist, entry.Title, artistOnly,
			entry.Provider, entry.FetchedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("upsert lookup %q: %w", entry.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lookups: %w", err)
	}
	return nil
}

// ForgetLookup deletes one entry, reporting whether it existed.
func (s *SQLiteStore) ForgetLookup(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lookups WHERE cache_key = ?", key)
	if err != nil {
		return false, fmt.Errorf("forget lookup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("forget lookup rows: %w", err)
	}
	return n > 0, nil
}

// ListLookups returns every cached entry ordered by key.
func (s *SQLiteStore) ListLookups(ctx context.Context) ([]LookupEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cache_key, status, artist, title, artist_only, provider, fetched_at
           FROM lookups ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	defer rows.Close()

	var out []LookupEntry
	for rows.Next() {
		entry, err := scanLookup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Clear removes every lookup and registry entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range []string{"DELETE FROM lookups", "DELETE FROM duplicate_registry"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return tx.Commit()
}

// RegistryEntries returns the recorded placements ordered by path.
func (s *SQLiteStore) RegistryEntries(ctx context.Context) ([]fingerprint.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT fingerprint, path, recorded_at FROM duplicate_registry ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}
	defer rows.Close()

	var out []fingerprint.RegistryEntry
	for rows.Next() {
		var (
			entry      fingerprint.RegistryEntry
			recordedAt string
		)
		if err := rows.Scan(&entry.Fingerprint, &entry.Path, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan registry: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			entry.RecordedAt = ts
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// RecordPlacement registers a placed primary release. A path holds one
// fingerprint at a time.
func (s *SQLiteStore) RecordPlacement(ctx context.Context, fp, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM duplicate_registry WHERE path = ?", path); err != nil {
		return fmt.Errorf("replace registry path: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO duplicate_registry (fingerprint, path, recorded_at) VALUES (?, ?, ?)",
		fp, path, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record placement: %w", err)
	}
	return tx.Commit()
}

// Stats counts lookups by status and registry entries.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN status = 'matched' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN status = 'not_found' THEN 1 ELSE 0 END), 0)
           FROM lookups`).Scan(&stats.Lookups, &stats.Matched, &stats.NotFound)
	if err != nil {
		return Stats{}, fmt.Errorf("count lookups: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM duplicate_registry").Scan(&stats.Registry); err != nil {
		return Stats{}, fmt.Errorf("count registry: %w", err)
	}
	return stats, nil
}
