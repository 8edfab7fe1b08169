// Package cache persists the last fetched payload per source and a small
// key/value meta table (last refresh times, last chosen source) in sqlite.
// Raw payloads are cached rather than canonical records so a normalizer
// fix applies retroactively to cached data.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoPayload is returned when a source has nothing cached yet.
var ErrNoPayload = errors.New("no cached payload")

// KeyLastSource is the meta key remembering the last chosen source.
const KeyLastSource = "last_source"

type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS payloads (
			source_id  TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			fetched_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// PutPayload stores the raw response body fetched for a source.
func (c *Cache) PutPayload(sourceID string, body []byte, fetchedAt time.Time) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO payloads (source_id, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, sourceID, body, fetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("caching payload for %s: %w", sourceID, err)
	}
	return nil
}

// GetPayload returns the cached body and fetch time for a source, or
// ErrNoPayload.
func (c *Cache) GetPayload(sourceID string) ([]byte, time.Time, error) {
	var (
		body    []byte
		fetched string
	)
	err := c.readDB.QueryRow(
		"SELECT body, fetched_at FROM payloads WHERE source_id = ?", sourceID,
	).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoPayload
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading payload for %s: %w", sourceID, err)
	}
	t, err := time.Parse(time.RFC3339, fetched)
	if err != nil {
		t = time.Time{}
	}
	return body, t, nil
}

// GetMeta reads a meta value; ok is false when the key is unset.
func (c *Cache) GetMeta(key string) (string, bool) {
	var value string
	err := c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// SetMeta writes a meta value.
func (c *Cache) SetMeta(key, value string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Prune deletes payloads fetched longer ago than the retention window and
// returns how many were removed.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(time.RFC3339)
	res, err := c.writeDB.Exec("DELETE FROM payloads WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning payloads: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports how many payloads are cached and the db file size.
func (c *Cache) Stats(dbPath string) (count int, size int64, err error) {
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM payloads").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting payloads: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("statting cache file: %w", err)
	}
	return count, info.Size(), nil
}
