package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// CategoryRepository defines category persistence
type CategoryRepository interface {
	FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*Category, error)
	FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]Category, int64, error)
	ExistsByName(ctx context.Context, organizationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, category *Category) error
	// DeleteForTenant removes the category and detaches its products
	DeleteForTenant(ctx context.Context, organizationID, id uuid.UUID) error
}

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryID    *uuid.UUID
	Active        *bool
	ShowInCatalog *bool
	InStockOnly   bool
	LowStockOnly  bool
}

// ProductRepository defines product persistence
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product holding a row lock until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter ProductFilter) ([]Product, int64, error)
	ExistsBySKU(ctx context.Context, organizationID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error)
	CountLowStock(ctx context.Context, organizationID uuid.UUID) (int64, error)
	// CountLowStockByOrganization spans all organizations; used by background jobs
	CountLowStockByOrganization(ctx context.Context) (map[uuid.UUID]int64, error)
	Save(ctx context.Context, product *Product) error
	DeleteForTenant(ctx context.Context, organizationID, id uuid.UUID) error
}
