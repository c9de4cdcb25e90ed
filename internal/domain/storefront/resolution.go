package storefront

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resolution is what a subdomain label resolved to. Misses are cached too so
// random hosts do not reach the database on every request.
type Resolution struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Slug           string    `json:"slug"`
	// Registered is true for an active organization whose storefront is enabled
	Registered bool `json:"registered"`
}

// ResolutionCache caches slug resolutions. Get returns nil, nil on a miss.
type ResolutionCache interface {
	Get(ctx context.Context, slug string) (*Resolution, error)
	Set(ctx context.Context, res *Resolution, ttl time.Duration) error
	Delete(ctx context.Context, slug string) error
}
