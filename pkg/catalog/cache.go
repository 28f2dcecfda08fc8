package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/run-bigpig/apitools/pkg/interfaces"
)

// SpecCache is an in-memory, time-bounded cache of raw spec text in front of
// a catalog. A TTL of zero or less disables caching entirely: every Get
// fetches fresh and nothing is stored.
type SpecCache struct {
	catalog interfaces.Catalog
	ttl     time.Duration
	entries map[string]cacheEntry
	mu      sync.Mutex
	clock   func() time.Time
}

type cacheEntry struct {
	content   string
	expiresAt time.Time
}

// CacheOption represents an option for configuring the spec cache
type CacheOption func(*SpecCache)

// WithCacheClock overrides the time source, for tests
func WithCacheClock(clock func() time.Time) CacheOption {
	return func(c *SpecCache) {
		c.clock = clock
	}
}

// NewSpecCache creates a spec cache wrapping the given catalog
func NewSpecCache(catalog interfaces.Catalog, ttl time.Duration, options ...CacheOption) *SpecCache {
	cache := &SpecCache{
		catalog: catalog,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		clock:   time.Now,
	}

	for _, option := range options {
		option(cache)
	}

	return cache
}

// Get returns the raw text for (product, specPath), serving it from the cache
// while the entry is fresh. Expired entries are evicted lazily here, not by a
// background sweep.
func (c *SpecCache) Get(ctx context.Context, product, specPath string) (string, error) {
	if c.ttl <= 0 {
		return c.catalog.GetSpecContent(ctx, product, specPath)
	}

	key := product + ":" + specPath

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.clock().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.content, nil
	}
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	// Fetch outside the lock; concurrent cold-cache fetches for the same key
	// are tolerated, last writer wins
	content, err := c.catalog.GetSpecContent(ctx, product, specPath)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		content:   content,
		expiresAt: c.clock().Add(c.ttl),
	}
	c.mu.Unlock()

	return content, nil
}
