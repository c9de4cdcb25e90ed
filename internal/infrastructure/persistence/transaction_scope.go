package persistence

import (
	"context"

	appshared "github.com/storehub/backend/internal/application/shared"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in a transaction; an error from fn rolls it back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Repositories binds every GORM repository to one *gorm.DB (a transaction or the pool)
type Repositories struct {
	db *gorm.DB
}

// NewRepositories creates repositories sharing db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{db: db}
}

func (r *Repositories) Organizations() identity.OrganizationRepository {
	return NewGormOrganizationRepository(r.db)
}

func (r *Repositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.db)
}

func (r *Repositories) Members() identity.MemberRepository {
	return NewGormMemberRepository(r.db)
}

func (r *Repositories) Categories() catalog.CategoryRepository {
	return NewGormCategoryRepository(r.db)
}

func (r *Repositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *Repositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.db)
}

func (r *Repositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.db)
}

func (r *Repositories) SaleNumbers() trade.SaleNumberSequence {
	return NewGormSaleNumberSequence(r.db)
}

func (r *Repositories) StockMovements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.db)
}

func (r *Repositories) CatalogSettings() storefront.CatalogSettingsRepository {
	return NewGormCatalogSettingsRepository(r.db)
}

func (r *Repositories) CatalogUsers() storefront.CatalogUserRepository {
	return NewGormCatalogUserRepository(r.db)
}

func (r *Repositories) Checkouts() storefront.CheckoutRepository {
	return NewGormCheckoutRepository(r.db)
}

var (
	_ appshared.TransactionScope = (*GormTransactionScope)(nil)
	_ appshared.Repositories     = (*Repositories)(nil)
)

// AutoMigrateModels lists every persisted type, used by tests that build the
// schema with AutoMigrate instead of the SQL migrations.
func AutoMigrateModels() []any {
	return []any{
		&identity.Organization{},
		&identity.User{},
		&identity.Member{},
		&catalog.Category{},
		&catalog.Product{},
		&partner.Customer{},
		&trade.Sale{},
		&trade.SaleItem{},
		&SaleCounter{},
		&inventory.StockMovement{},
		&storefront.CatalogSettings{},
		&storefront.CatalogUser{},
		&storefront.Checkout{},
	}
}
