package aggregate

import (
	"time"

	"clubstats/internal/cache"
	"clubstats/internal/selection"
)

// Cached memoizes a Computer by resolved club set.
type Cached struct {
	next  Computer
	cache *cache.LRUCache[View]
}

// NewCached wraps next with an LRU cache of size entries.
func NewCached(next Computer, size int, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.NewLRUCache[View](size, ttl)}
}

// Compute returns a copy of the cached view, computing it on a miss. The
// returned Selection is always sel, so ALL and an explicit full set that
// share an entry keep their own flag.
func (c *Cached) Compute(sel selection.Selection) View {
	key := sel.Key()
	v, ok := c.cache.Get(key)
	if !ok {
		v = c.next.Compute(sel)
		c.cache.Set(key, v.Clone())
	}
	out := v.Clone()
	out.Selection = selection.Selection{All: sel.All, Clubs: append([]string(nil), sel.Clubs...)}
	return out
}

// Cache exposes the underlying cache for cleanup registration and stats.
func (c *Cached) Cache() *cache.LRUCache[View] {
	return c.cache
}
