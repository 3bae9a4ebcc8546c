package sqlguard

import "github.com/jellydator/ttlcache/v3"

// cacheEntryLimit bounds the number of cached validation outcomes. Eviction is
// oldest-first; a miss only costs a re-parse.
const cacheEntryLimit = 100

type validationOutcome struct {
	sql string
	vio *Violation
}

// resultCache memoizes validation outcomes keyed by normalized SQL text.
// Rejections are cached alongside accepts so repeated bad queries stay cheap.
type resultCache struct {
	entries *ttlcache.Cache[string, validationOutcome]
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		entries: ttlcache.New(
			ttlcache.WithCapacity[string, validationOutcome](uint64(capacity)),
		),
	}
}

func (c *resultCache) get(key string) (string, *Violation, bool) {
	item := c.entries.Get(key)
	if item == nil {
		return "", nil, false
	}
	out := item.Value()
	return out.sql, out.vio, true
}

func (c *resultCache) put(key, sql string, vio *Violation) {
	c.entries.Set(key, validationOutcome{sql: sql, vio: vio}, ttlcache.NoTTL)
}
