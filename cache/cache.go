package cache

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Cache stores raw feed bodies so repeated runs within the TTL reuse
// the last fetched document instead of hitting the provider again.
type Cache struct {
	db *sql.DB
}

// Stats contains cache statistics
type Stats struct {
	Entries     int
	OldestFetch time.Time
}

// New initializes the cache database at the given path
func New(dbPath string) (*Cache, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// GetFeed retrieves a cached feed body no older than maxAge.
// Returns: (body, found, error). Read errors degrade to a miss.
func (c *Cache) GetFeed(url string, maxAge time.Duration) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64

	err := c.db.QueryRow(
		"SELECT body, fetched_at FROM feed_cache WHERE url = ?",
		url,
	).Scan(&body, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		slog.Warn("feed cache read error", "error", err, "url", truncate(url, 50))
		return nil, false, nil
	}

	if time.Since(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}

	// Update accessed_at
	_, _ = c.db.Exec(
		"UPDATE feed_cache SET accessed_at = ? WHERE url = ?",
		time.Now().Unix(), url,
	)

	return body, true, nil
}

// SetFeed stores a freshly fetched feed body
func (c *Cache) SetFeed(url string, body []byte) error {
	now := time.Now().Unix()

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO feed_cache
		(url, body, fetched_at, accessed_at)
		VALUES (?, ?, ?, ?)
	`, url, body, now, now)

	if err != nil {
		slog.Warn("feed cache write error", "error", err, "url", truncate(url, 50))
		return err
	}

	return nil
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM feed_cache"); err != nil {
		return fmt.Errorf("failed to clear feed cache: %w", err)
	}
	return nil
}

// Stats returns cache statistics
func (c *Cache) Stats() (Stats, error) {
	var stats Stats

	err := c.db.QueryRow("SELECT COUNT(*) FROM feed_cache").Scan(&stats.Entries)
	if err != nil {
		return stats, err
	}

	var oldestUnix sql.NullInt64
	err = c.db.QueryRow("SELECT MIN(fetched_at) FROM feed_cache").Scan(&oldestUnix)
	if err != nil && err != sql.ErrNoRows {
		return stats, err
	}
	if oldestUnix.Valid && oldestUnix.Int64 > 0 {
		stats.OldestFetch = time.Unix(oldestUnix.Int64, 0)
	}

	return stats, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
