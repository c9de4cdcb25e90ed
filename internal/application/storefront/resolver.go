package storefront

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
)

// DefaultResolutionTTL is used when the resolver is built with ttl <= 0
const DefaultResolutionTTL = 5 * time.Minute

// Resolver maps subdomain labels to storefronts through a cache
type Resolver struct {
	loader   storeLoader
	cache    storefront.ResolutionCache
	reserved identity.ReservedSet
	ttl      time.Duration
	logger   *zap.Logger
}

// NewResolver creates a resolver. extraReserved is appended to the built-in
// reserved labels; cache may be nil to always hit the database.
func NewResolver(
	orgs identity.OrganizationRepository,
	settings storefront.CatalogSettingsRepository,
	cache storefront.ResolutionCache,
	extraReserved []string,
	ttl time.Duration,
	logger *zap.Logger,
) *Resolver {
	if ttl <= 0 {
		ttl = DefaultResolutionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		loader:   storeLoader{orgs: orgs, settings: settings},
		cache:    cache,
		reserved: identity.ReservedSubdomains(extraReserved),
		ttl:      ttl,
		logger:   logger,
	}
}

// IsReserved reports whether label can never be a storefront
func (r *Resolver) IsReserved(label string) bool {
	return r.reserved.Contains(label)
}

// Resolve looks label up. Reserved and malformed labels resolve to an
// unregistered result without touching the cache or the database.
func (r *Resolver) Resolve(ctx context.Context, label string) (*storefront.Resolution, error) {
	slug := strings.ToLower(strings.TrimSpace(label))
	if r.IsReserved(slug) || identity.ValidateSlug(slug) != nil {
		return &storefront.Resolution{Slug: slug}, nil
	}

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, slug)
		if err != nil {
			r.logger.Warn("Resolution cache read failed", zap.String("slug", slug), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	res := &storefront.Resolution{Slug: slug}
	s, err := r.loader.load(ctx, slug)
	switch {
	case err == nil:
		res.OrganizationID = s.org.ID
		res.Registered = true
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, res, r.ttl); err != nil {
			r.logger.Warn("Resolution cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return res, nil
}

// Invalidate drops the cached resolution for slug
func (r *Resolver) Invalidate(ctx context.Context, slug string) {
	if r == nil || r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, slug); err != nil {
		r.logger.Warn("Resolution cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}
