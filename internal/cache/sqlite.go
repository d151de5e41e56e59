package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abhimit04/job-new-agent/internal/model"
)

// Ensure SQLiteCache implements model.Cache.
var _ model.Cache = (*SQLiteCache)(nil)

// SQLiteCache stores cache entries in a SQLite database, one row per key.
// Writes are upserts; expiry is evaluated at read time from expires_at.
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time // replaceable for tests
}

// NewSQLiteCache opens (or creates) a SQLite database at dbPath and
// ensures the cache_entries table exists.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key  TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		expires_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache_entries table: %w", err)
	}

	return &SQLiteCache{db: db, now: time.Now}, nil
}

// Get returns the payload for key, or a miss if absent or expired.
// Expired rows are deleted on read.
func (c *SQLiteCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var data string
	var expiresAt time.Time
	err := c.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM cache_entries WHERE cache_key = ?", key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	if c.now().After(expiresAt) {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_key = ?", key); err != nil {
			return nil, false, fmt.Errorf("deleting expired cache entry %s: %w", key, err)
		}
		return nil, false, nil
	}

	return json.RawMessage(data), true, nil
}

// Set upserts the payload for key with the given TTL. A new successful
// fetch always overwrites any prior entry for the same key.
func (c *SQLiteCache) Set(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_key, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, string(payload), c.now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Cleanup deletes entries whose expiry has passed. Space reclamation
// only; Get already treats expired rows as misses.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at < ?", c.now())
	if err != nil {
		return fmt.Errorf("cleaning up expired cache entries: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
