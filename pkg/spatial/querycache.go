// pkg/spatial/querycache.go
package spatial

import (
	"time"

	"github.com/opd-ai/go-collider/pkg/geom"
)

// queryCacheKey identifies a region query; regions must match exactly for a
// cache hit.
type queryCacheKey struct {
	minX, minY float64
	maxX, maxY float64
	mask       Layer
}

// cacheEntry holds memoized query results until they expire
type cacheEntry struct {
	results []Object
	expires time.Time
}

// QueryCache memoizes repeated identical region queries within a short
// window. Any index mutation invalidates the whole cache, so entries can
// never outlive the spatial state they were computed from.
type QueryCache struct {
	ttl     time.Duration
	entries map[queryCacheKey]cacheEntry
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// NewQueryCache creates a cache with the given time-to-live
func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		ttl:     ttl,
		entries: make(map[queryCacheKey]cacheEntry),
		now:     time.Now,
	}
}

func cacheKeyFor(region geom.AABB, mask Layer) queryCacheKey {
	return queryCacheKey{
		minX: region.Min.X, minY: region.Min.Y,
		maxX: region.Max.X, maxY: region.Max.Y,
		mask: mask,
	}
}

// Get returns memoized results for the region and mask, if fresh
func (c *QueryCache) Get(region geom.AABB, mask Layer) ([]Object, bool) {
	entry, ok := c.entries[cacheKeyFor(region, mask)]
	if !ok || c.now().After(entry.expires) {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.results, true
}

// Put memoizes results for the region and mask
func (c *QueryCache) Put(region geom.AABB, mask Layer, results []Object) {
	c.entries[cacheKeyFor(region, mask)] = cacheEntry{
		results: results,
		expires: c.now().Add(c.ttl),
	}
}

// Invalidate drops every entry. Called on any insert, remove, or update.
func (c *QueryCache) Invalidate() {
	if len(c.entries) > 0 {
		c.entries = make(map[queryCacheKey]cacheEntry)
	}
}

// HitRate returns the fraction of lookups served from cache
func (c *QueryCache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
