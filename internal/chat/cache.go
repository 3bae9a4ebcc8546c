package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// resultCache holds executed query results for a short window so repeated
// identical questions skip the database. Keys hash the statement plus its
// parameter values.
type resultCache struct {
	entries *ttlcache.Cache[string, []map[string]any]
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	c := &resultCache{
		entries: ttlcache.New(
			ttlcache.WithTTL[string, []map[string]any](ttl),
		),
	}
	go c.entries.Start()
	return c
}

func cacheKeyFor(sql string, params []any) string {
	encoded, _ := json.Marshal(params)
	h := sha256.New()
	h.Write([]byte(sql))
	h.Write([]byte("||"))
	h.Write(encoded)
	return "sqlcache:" + hex.EncodeToString(h.Sum(nil))
}

func (c *resultCache) get(key string) ([]map[string]any, bool) {
	item := c.entries.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *resultCache) put(key string, rows []map[string]any) {
	c.entries.Set(key, rows, ttlcache.DefaultTTL)
}

func (c *resultCache) stop() {
	c.entries.Stop()
}
