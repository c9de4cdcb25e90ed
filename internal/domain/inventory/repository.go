package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// MovementFilter narrows movement listings
type MovementFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	SaleID    *uuid.UUID
	Type      MovementType
}

// StockMovementRepository persists the stock ledger
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter MovementFilter) ([]StockMovement, int64, error)
}
