package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/storefront"
)

// TieredResolutionCache reads through a local L1 into a shared L2. Deletes
// are broadcast so that peers drop their L1 copy.
type TieredResolutionCache struct {
	l1          *InMemoryResolutionCache
	l2          storefront.ResolutionCache
	invalidator *ResolutionInvalidator
	l1TTL       time.Duration
	logger      *zap.Logger
}

// TieredOption configures a TieredResolutionCache
type TieredOption func(*TieredResolutionCache)

// WithL1TTL caps how long an entry lives in the local tier
func WithL1TTL(ttl time.Duration) TieredOption {
	return func(c *TieredResolutionCache) {
		c.l1TTL = ttl
	}
}

// WithInvalidator broadcasts deletes to peer instances
func WithInvalidator(inv *ResolutionInvalidator) TieredOption {
	return func(c *TieredResolutionCache) {
		c.invalidator = inv
	}
}

// WithTieredLogger sets the logger
func WithTieredLogger(logger *zap.Logger) TieredOption {
	return func(c *TieredResolutionCache) {
		c.logger = logger
	}
}

// NewTieredResolutionCache builds the two-level cache
func NewTieredResolutionCache(l1 *InMemoryResolutionCache, l2 storefront.ResolutionCache, opts ...TieredOption) *TieredResolutionCache {
	c := &TieredResolutionCache{
		l1:     l1,
		l2:     l2,
		l1TTL:  30 * time.Second,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements storefront.ResolutionCache. An L2 failure degrades to a miss.
func (c *TieredResolutionCache) Get(ctx context.Context, slug string) (*storefront.Resolution, error) {
	if res, _ := c.l1.Get(ctx, slug); res != nil {
		return res, nil
	}
	res, err := c.l2.Get(ctx, slug)
	if err != nil {
		c.logger.Warn("shared resolution cache unavailable", zap.String("slug", slug), zap.Error(err))
		return nil, nil
	}
	if res != nil {
		_ = c.l1.Set(ctx, res, c.l1TTL)
	}
	return res, nil
}

// Set implements storefront.ResolutionCache
func (c *TieredResolutionCache) Set(ctx context.Context, res *storefront.Resolution, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	_ = c.l1.Set(ctx, res, l1TTL)
	if err := c.l2.Set(ctx, res, ttl); err != nil {
		c.logger.Warn("failed to write shared resolution cache", zap.Error(err))
	}
	return nil
}

// Delete implements storefront.ResolutionCache
func (c *TieredResolutionCache) Delete(ctx context.Context, slug string) error {
	_ = c.l1.Delete(ctx, slug)
	if err := c.l2.Delete(ctx, slug); err != nil {
		return err
	}
	if c.invalidator != nil {
		if err := c.invalidator.PublishDelete(ctx, slug); err != nil {
			c.logger.Warn("failed to broadcast resolution invalidation", zap.String("slug", slug), zap.Error(err))
		}
	}
	return nil
}

// HandleInvalidation applies a message received from a peer to the local tier
func (c *TieredResolutionCache) HandleInvalidation(msg InvalidationMessage) {
	switch msg.Action {
	case InvalidationDelete:
		_ = c.l1.Delete(context.Background(), msg.Slug)
	case InvalidationPurge:
		c.l1.Purge()
	}
}

var _ storefront.ResolutionCache = (*TieredResolutionCache)(nil)
