package matcher

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/metrics"
)

type cachedResult struct {
	res Result
	ok  bool
}

// Cache memoizes the answers of one Matcher. Its catalog never changes, so
// entries only go stale when the renderer resolves or fails a model; the
// TTL bounds that.
type Cache struct {
	matcher *Matcher
	cache   *cache.Cache
	metrics *metrics.Metrics
}

// NewCache wraps m with a cache whose entries live for ttl.
func NewCache(m *Matcher, ttl time.Duration, metrics *metrics.Metrics) *Cache {
	return &Cache{
		matcher: m,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func cacheKey(q Query) string {
	return q.ICAO + "\x00" + q.Airline + "\x00" + q.Livery + "\x00" + strconv.FormatBool(q.NoDefault)
}

// Match answers q from the cache or the wrapped matcher.
func (c *Cache) Match(q Query) (Result, bool) {
	key := cacheKey(q)
	if v, found := c.cache.Get(key); found {
		if cr, ok := v.(cachedResult); ok {
			c.metrics.CacheLookup(true)
			return cr.res, cr.ok
		}
	}
	c.metrics.CacheLookup(false)

	res, ok := c.matcher.Match(q)
	c.cache.SetDefault(key, cachedResult{res: res, ok: ok})
	return res, ok
}

// Catalog returns the catalog of the wrapped matcher.
func (c *Cache) Catalog() *csl.Catalog { return c.matcher.Catalog() }

// Flush drops every cached answer.
func (c *Cache) Flush() { c.cache.Flush() }

// Live holds the current Cache and lets a catalog rescan replace it while
// queries are running.
type Live struct {
	current atomic.Pointer[Cache]
}

// NewLive returns a Live serving c.
func NewLive(c *Cache) *Live {
	l := &Live{}
	l.current.Store(c)
	return l
}

// Swap makes c the cache that answers new queries.
func (l *Live) Swap(c *Cache) { l.current.Store(c) }

// Match answers q against the current catalog.
func (l *Live) Match(q Query) (Result, bool) { return l.current.Load().Match(q) }

// Catalog returns the current catalog.
func (l *Live) Catalog() *csl.Catalog { return l.current.Load().Catalog() }
