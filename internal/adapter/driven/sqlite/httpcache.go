package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/gregjones/httpcache"
)

// Compile-time interface satisfaction check.
var _ httpcache.Cache = (*ResponseCache)(nil)

// ResponseCache stores serialized Directory API responses so ETag
// revalidation carries across runs of both binaries. The httpcache.Cache
// interface has no error returns; failures are logged and treated as misses.
type ResponseCache struct {
	db *DB
}

// NewResponseCache creates a ResponseCache backed by the given DB.
func NewResponseCache(db *DB) *ResponseCache {
	return &ResponseCache{db: db}
}

// Get returns the stored response for key.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	var resp []byte
	err := c.db.Reader.QueryRowContext(context.Background(),
		`SELECT response FROM http_cache WHERE key = ?`, key,
	).Scan(&resp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache read failed", "key", key, "error", err)
		return nil, false
	}
	return resp, true
}

// Set stores resp under key, replacing any earlier response.
func (c *ResponseCache) Set(key string, resp []byte) {
	const query = `
		INSERT INTO http_cache (key, response, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET response = excluded.response, stored_at = excluded.stored_at
	`
	if _, err := c.db.Writer.ExecContext(context.Background(), query, key, resp, formatTime(time.Now())); err != nil {
		slog.Warn("response cache write failed", "key", key, "error", err)
	}
}

// Delete removes the response stored under key.
func (c *ResponseCache) Delete(key string) {
	if _, err := c.db.Writer.ExecContext(context.Background(), `DELETE FROM http_cache WHERE key = ?`, key); err != nil {
		slog.Warn("response cache delete failed", "key", key, "error", err)
	}
}
