package shared

import (
	"context"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/domain/trade"
)

// TransactionScope runs a unit of work inside one database transaction.
// Returning an error from fn rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories exposes every repository bound to the current transaction
type Repositories interface {
	Organizations() identity.OrganizationRepository
	Users() identity.UserRepository
	Members() identity.MemberRepository
	Categories() catalog.CategoryRepository
	Products() catalog.ProductRepository
	Customers() partner.CustomerRepository
	Sales() trade.SaleRepository
	SaleNumbers() trade.SaleNumberSequence
	StockMovements() inventory.StockMovementRepository
	CatalogSettings() storefront.CatalogSettingsRepository
	CatalogUsers() storefront.CatalogUserRepository
	Checkouts() storefront.CheckoutRepository
}
