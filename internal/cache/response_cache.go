package cache

import (
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// DatabaseKeyPrefix prefixes cache keys for upstream database query results.
const DatabaseKeyPrefix = "db_"

func DatabaseKey(databaseID string) string {
	return DatabaseKeyPrefix + databaseID
}

// ResponseCache keeps upstream JSON responses for a single fixed TTL.
// Writes to the proxied resources must invalidate the affected keys so
// a read right after a write never serves the pre-write payload.
type ResponseCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		// cleanup sweeps expired entries; a Get between sweeps
		// still treats an over-age entry as a miss
		store: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *ResponseCache) Get(key string) (json.RawMessage, bool) {
	value, found := c.store.Get(key)
	if !found {
		return nil, false
	}

	payload, ok := value.(json.RawMessage)
	if !ok {
		// should not happen, entries are only written via Put
		c.store.Delete(key)
		return nil, false
	}
	return payload, true
}

func (c *ResponseCache) Put(key string, value json.RawMessage) {
	// copy, callers may reuse the underlying buffer
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	c.store.Set(key, stored, c.ttl)
}

// Invalidate removes every entry whose key contains pattern as a
// substring and returns the number of removed entries.
func (c *ResponseCache) Invalidate(pattern string) int {
	removed := 0
	for key := range c.store.Items() {
		if strings.Contains(key, pattern) {
			c.store.Delete(key)
			removed++
		}
	}
	if removed > 0 {
		log.Debugf("cache: invalidated %d entries for pattern [%s]", removed, pattern)
	}
	return removed
}

func (c *ResponseCache) Clear() {
	c.store.Flush()
	log.Debug("cache: cleared")
}

func (c *ResponseCache) Len() int {
	return c.store.ItemCount()
}

func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}
