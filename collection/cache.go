package collection

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pevans/technews/newsapi"
)

// DefaultCacheTTL is how long a fetched collection is reused.
const DefaultCacheTTL = 5 * time.Minute

// Cache keeps one Session per country selector, so paging and searching
// run over a collection fetched once. A collection older than the TTL is
// fetched again; failed fetches are not kept. Concurrent misses on the same
// selector share a single fetch.
type Cache struct {
	pipeline *Pipeline
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]*cacheEntry
	closed  bool
}

type cacheEntry struct {
	session *Session
	fetched time.Time
}

// NewCache creates a cache over p. A ttl of zero or less disables reuse.
func (p *Pipeline) NewCache(ttl time.Duration) *Cache {
	return &Cache{
		pipeline: p,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*cacheEntry),
	}
}

// Get returns the collection for country, fetching it when there is no
// fresh one.
func (c *Cache) Get(ctx context.Context, country string) (Collection, error) {
	key := scopeKey(country)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{session: c.pipeline.NewSession()}
		c.entries[key] = e
	}
	fresh := !e.fetched.IsZero() && c.now().Sub(e.fetched) < c.ttl
	c.mu.Unlock()

	if fresh {
		return e.session.Current()
	}

	// The fetch outlives the request that started it; other callers may be
	// waiting on it.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if _, err := e.session.Load(fetchCtx, country); err != nil {
			return nil, err
		}

		c.mu.Lock()
		e.fetched = c.now()
		c.mu.Unlock()

		col, err := e.session.Current()
		return col, err
	})
	if err != nil {
		return nil, err
	}
	return v.(Collection), nil
}

// Invalidate drops the collection kept for country.
func (c *Cache) Invalidate(country string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[scopeKey(country)]; ok {
		e.fetched = time.Time{}
	}
}

// Close closes every session. Later calls to Get fail with ErrSessionClosed.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, e := range c.entries {
		e.session.Close()
	}
	clear(c.entries)
}

// scopeKey maps a country selector to the scope FetchCountry fetches, so
// selectors naming the same language share an entry.
func scopeKey(country string) string {
	if country == CountryAll {
		return CountryAll
	}
	return string(newsapi.MapCountryToLang(country))
}
