package trade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	Status     SaleStatus
	CustomerID *uuid.UUID
	Source     SaleSource
	From       *time.Time
	To         *time.Time
}

// SaleRepository persists sales and their items
type SaleRepository interface {
	// FindByIDForTenant loads a sale with its items
	FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*Sale, error)
	// FindByExternalID finds the sale recorded for a provider payment, or ErrNotFound
	FindByExternalID(ctx context.Context, organizationID uuid.UUID, provider PaymentProvider, externalID string) (*Sale, error)
	FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter SaleFilter) ([]Sale, int64, error)
	// Create inserts the sale and its items
	Create(ctx context.Context, sale *Sale) error
	// UpdateStatus persists status fields and version
	UpdateStatus(ctx context.Context, sale *Sale) error
}

// SaleNumberSequence hands out per-organization sale numbers. Implementations
// must be safe under concurrent transactions: two callers never get the same number.
type SaleNumberSequence interface {
	Next(ctx context.Context, organizationID uuid.UUID) (int64, error)
}
