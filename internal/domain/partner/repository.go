package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// CustomerRepository defines customer persistence
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (*Customer, error)
	FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	ExistsByEmail(ctx context.Context, organizationID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error)
	CountForTenant(ctx context.Context, organizationID uuid.UUID) (int64, error)
	Save(ctx context.Context, customer *Customer) error
	DeleteForTenant(ctx context.Context, organizationID, id uuid.UUID) error
}
