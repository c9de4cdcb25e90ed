package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storehub/backend/internal/domain/storefront"
)

// RedisResolutionCache is the shared L2 for storefront slug resolutions
type RedisResolutionCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// NewRedisResolutionCache creates a cache on a shared client
func NewRedisResolutionCache(client *redis.Client, ttl time.Duration) *RedisResolutionCache {
	return &RedisResolutionCache{
		client:     client,
		keyPrefix:  keyPrefix + "storefront:slug:",
		defaultTTL: ttl,
	}
}

func (c *RedisResolutionCache) key(slug string) string {
	return c.keyPrefix + normalizeSlug(slug)
}

// Get implements storefront.ResolutionCache
func (c *RedisResolutionCache) Get(ctx context.Context, slug string) (*storefront.Resolution, error) {
	data, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slug resolution: %w", err)
	}
	var res storefront.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		// a corrupt entry is a miss; it is overwritten on the next Set
		return nil, nil
	}
	return &res, nil
}

// Set implements storefront.ResolutionCache
func (c *RedisResolutionCache) Set(ctx context.Context, res *storefront.Resolution, ttl time.Duration) error {
	if res == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode slug resolution: %w", err)
	}
	if err := c.client.Set(ctx, c.key(res.Slug), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store slug resolution: %w", err)
	}
	return nil
}

// Delete implements storefront.ResolutionCache
func (c *RedisResolutionCache) Delete(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, c.key(slug)).Err(); err != nil {
		return fmt.Errorf("failed to delete slug resolution: %w", err)
	}
	return nil
}

var _ storefront.ResolutionCache = (*RedisResolutionCache)(nil)
