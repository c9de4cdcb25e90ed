package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/auth"
)

// Factory picks Redis-backed implementations when a client is available
// and in-memory ones otherwise
type Factory struct {
	client *redis.Client
	logger *zap.Logger
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a factory. client may be nil.
func NewFactory(client *redis.Client, opts ...FactoryOption) *Factory {
	f := &Factory{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Distributed reports whether state is shared across instances
func (f *Factory) Distributed() bool {
	return f.client != nil
}

// IdempotencyStore returns the store used to deduplicate webhook deliveries
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client)
	}
	f.logger.Warn("Redis disabled, using in-memory idempotency store; " +
		"redelivered webhooks may be processed twice across instances")
	return NewInMemoryIdempotencyStore()
}

// TokenBlacklist returns the store for revoked tokens
func (f *Factory) TokenBlacklist() auth.TokenBlacklist {
	if f.client != nil {
		return auth.NewRedisTokenBlacklist(f.client)
	}
	f.logger.Warn("Redis disabled, token revocation is local to this instance")
	return auth.NewInMemoryTokenBlacklist()
}

// ResolutionCache returns the subdomain resolution cache and a listen
// function that applies peer invalidations until its context ends. listen
// returns immediately when Redis is disabled.
func (f *Factory) ResolutionCache(ttl time.Duration) (storefront.ResolutionCache, func(context.Context) error) {
	l1 := NewInMemoryResolutionCache(ttl)
	if f.client == nil {
		return l1, func(context.Context) error { return nil }
	}
	inv := NewResolutionInvalidator(f.client, WithInvalidatorLogger(f.logger))
	l1TTL := 30 * time.Second
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	tiered := NewTieredResolutionCache(l1, NewRedisResolutionCache(f.client, ttl),
		WithL1TTL(l1TTL),
		WithInvalidator(inv),
		WithTieredLogger(f.logger),
	)
	return tiered, func(ctx context.Context) error {
		return inv.Subscribe(ctx, tiered.HandleInvalidation)
	}
}
