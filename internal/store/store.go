// Package store provides the durable client-local key/value store backing
// the offline queue and user preferences.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/eparkir/setoran/internal/apperr"
)

// KV is a single-writer key/value store over SQLite. Each key holds one
// serialized value that is always read and written whole.
type KV struct {
	db    *sql.DB
	quota int64
}

// Open opens the store under dataDir, creating it if needed.
// quotaBytes bounds the size of any single stored value; writes beyond the
// bound fail with QUOTA_EXCEEDED. A quota of 0 disables the bound.
func Open(dataDir string, quotaBytes int64) (*KV, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "setoran.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &KV{db: db, quota: quotaBytes}, nil
}

// Get returns the value stored under key, and whether the key exists.
func (s *KV) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Wrap(apperr.ErrStoreFailed, "read failed", err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *KV) Set(key, value string) error {
	if s.quota > 0 && int64(len(value)) > s.quota {
		return apperr.New(apperr.ErrQuotaExceeded,
			fmt.Sprintf("value of %d bytes exceeds the %d byte store quota", len(value), s.quota))
	}

	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return apperr.Wrap(apperr.ErrStoreFailed, "write failed", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *KV) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return apperr.Wrap(apperr.ErrStoreFailed, "delete failed", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *KV) Close() error {
	return s.db.Close()
}
