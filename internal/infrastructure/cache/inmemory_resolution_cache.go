package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/storehub/backend/internal/domain/storefront"
)

// InMemoryResolutionCache is the per-instance L1 for storefront slug resolutions
type InMemoryResolutionCache struct {
	entries    *ttlMap[storefront.Resolution]
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewInMemoryResolutionCache creates a cache; ttl applies when Set gets 0
func NewInMemoryResolutionCache(ttl time.Duration) *InMemoryResolutionCache {
	return &InMemoryResolutionCache{
		entries:    newTTLMap[storefront.Resolution](defaultCleanupInterval),
		defaultTTL: ttl,
	}
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// Get implements storefront.ResolutionCache
func (c *InMemoryResolutionCache) Get(_ context.Context, slug string) (*storefront.Resolution, error) {
	res, ok := c.entries.get(normalizeSlug(slug))
	if !ok {
		c.misses.Add(1)
		return nil, nil
	}
	c.hits.Add(1)
	return &res, nil
}

// Set implements storefront.ResolutionCache
func (c *InMemoryResolutionCache) Set(_ context.Context, res *storefront.Resolution, ttl time.Duration) error {
	if res == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries.set(normalizeSlug(res.Slug), *res, ttl)
	return nil
}

// Delete implements storefront.ResolutionCache
func (c *InMemoryResolutionCache) Delete(_ context.Context, slug string) error {
	c.entries.remove(normalizeSlug(slug))
	return nil
}

// Purge drops every entry
func (c *InMemoryResolutionCache) Purge() {
	c.entries.clear()
}

// Stats returns hit and miss counters
func (c *InMemoryResolutionCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the sweeper
func (c *InMemoryResolutionCache) Close() {
	c.entries.close()
}

var _ storefront.ResolutionCache = (*InMemoryResolutionCache)(nil)
