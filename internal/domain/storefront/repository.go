package storefront

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CatalogSettingsRepository persists storefront settings
type CatalogSettingsRepository interface {
	FindByOrganization(ctx context.Context, organizationID uuid.UUID) (*CatalogSettings, error)
	Save(ctx context.Context, settings *CatalogSettings) error
}

// CatalogUserRepository persists storefront accounts
type CatalogUserRepository interface {
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*CatalogUser, error)
	FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (*CatalogUser, error)
	ExistsByEmail(ctx context.Context, organizationID uuid.UUID, email string) (bool, error)
	Save(ctx context.Context, user *CatalogUser) error
}

// CheckoutRepository persists checkouts
type CheckoutRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Checkout, error)
	Save(ctx context.Context, checkout *Checkout) error
	// ExpirePending flips PENDING checkouts whose deadline is before now and returns how many changed
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
