// Package sqlite implements the response cache on a SQLite store. TTLs are
// short (minutes): underlying student data changes quickly, so a stale
// answer is worse than a provider round trip.
package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sahayak-ai/sahayak/pkg/classifier"
	"github.com/sahayak-ai/sahayak/pkg/models"
)

// Cache is an exact-match response cache backed by SQLite.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS response_cache (
	request_hash TEXT PRIMARY KEY,
	response BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL
);
`

// New creates a Cache with the given database path and default TTL.
func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// HashRequest computes a stable SHA-256 key over the fields that determine
// the answer: user, normalized message, conversation and explicit provider
// preferences. Requests differing only in other metadata hash identically.
func HashRequest(req models.Request) string {
	h := sha256.New()
	h.Write([]byte(req.UserID))
	h.Write([]byte{0})
	h.Write([]byte(classifier.Normalize(req.Message)))
	h.Write([]byte{0})
	h.Write([]byte(req.ConversationID))
	h.Write([]byte{0})
	h.Write([]byte(req.PreferredProvider))
	h.Write([]byte{0})
	h.Write([]byte(req.PreferredModel))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves a cached response for a request. Expiry is exact at read
// time; an expired row is deleted on sight. A hit comes back with
// Cached=true and zero latency.
func (c *Cache) Get(req models.Request) (*models.Response, bool) {
	hash := HashRequest(req)

	var blob []byte
	var createdAt time.Time
	var ttlSeconds int64
	err := c.db.QueryRow(
		`SELECT response, created_at, ttl_seconds FROM response_cache WHERE request_hash = ?`,
		hash,
	).Scan(&blob, &createdAt, &ttlSeconds)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	if time.Since(createdAt) > time.Duration(ttlSeconds)*time.Second {
		_, _ = c.db.Exec(`DELETE FROM response_cache WHERE request_hash = ?`, hash)
		c.misses.Add(1)
		return nil, false
	}

	var resp models.Response
	if err := json.Unmarshal(blob, &resp); err != nil {
		c.misses.Add(1)
		return nil, false
	}

	resp.Cached = true
	resp.LatencyMs = 0
	c.hits.Add(1)
	return &resp, true
}

// Put stores a response, opportunistically evicting expired rows.
func (c *Cache) Put(req models.Request, resp *models.Response) error {
	blob, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	_, _ = c.db.Exec(`DELETE FROM response_cache WHERE (julianday('now') - julianday(created_at)) * 86400 > ttl_seconds`)

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO response_cache (request_hash, response, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?)`,
		HashRequest(req), blob, time.Now().UTC(), int64(c.ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM response_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries
// are removed.
func (c *Cache) Clear(expiredOnly bool) error {
	var query string
	if expiredOnly {
		query = `DELETE FROM response_cache WHERE (julianday('now') - julianday(created_at)) * 86400 > ttl_seconds`
	} else {
		query = `DELETE FROM response_cache`
	}
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
