package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormSaleRepository implements trade.SaleRepository
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByIDForTenant loads a sale with its items and customer
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*trade.Sale, error) {
	var s trade.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Scopes(tenant.Scope(organizationID)).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// FindByExternalID finds the sale recorded for a provider payment
func (r *GormSaleRepository) FindByExternalID(ctx context.Context, organizationID uuid.UUID, provider trade.PaymentProvider, externalID string) (*trade.Sale, error) {
	if externalID == "" {
		return nil, shared.ErrNotFound
	}
	var s trade.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Scopes(tenant.Scope(organizationID)).
		Where("payment_provider = ? AND external_id = ?", provider, externalID).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// FindAllForTenant lists sales matching the filter, newest first by default
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.Sale{}).Scopes(tenant.Scope(organizationID))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []trade.Sale
	err := paginate(query.Preload("Items").Preload("Customer").
		Order(orderClause(filter.Filter, SaleSortFields, "created_at")), filter.Filter).
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

// Create inserts a sale together with its items
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	return translate(r.db.WithContext(ctx).Omit("Customer").Create(sale).Error)
}

// UpdateStatus persists status and lifecycle timestamps of a sale
func (r *GormSaleRepository) UpdateStatus(ctx context.Context, sale *trade.Sale) error {
	result := r.db.WithContext(ctx).Model(&trade.Sale{}).
		Scopes(tenant.Scope(sale.OrganizationID)).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"status":       sale.Status,
			"completed_at": sale.CompletedAt,
			"cancelled_at": sale.CancelledAt,
			"updated_at":   sale.UpdatedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormSaleNumberSequence allocates per-organization sale numbers from the
// sale_counters table. The upsert takes the counter row lock, so concurrent
// transactions of the same organization serialize until commit.
type GormSaleNumberSequence struct {
	db *gorm.DB
}

// NewGormSaleNumberSequence creates a new GormSaleNumberSequence
func NewGormSaleNumberSequence(db *gorm.DB) *GormSaleNumberSequence {
	return &GormSaleNumberSequence{db: db}
}

// SaleCounter is the row backing GormSaleNumberSequence
type SaleCounter struct {
	OrganizationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastNumber     int64     `gorm:"not null;default:0"`
}

// TableName pins the counter table name
func (SaleCounter) TableName() string { return "sale_counters" }

const nextSaleNumberSQL = `INSERT INTO sale_counters (organization_id, last_number) VALUES (?, 1)
ON CONFLICT (organization_id) DO UPDATE SET last_number = sale_counters.last_number + 1
RETURNING last_number`

// Next returns the next sale number. It must run inside the sale transaction.
func (s *GormSaleNumberSequence) Next(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var next int64
	if err := s.db.WithContext(ctx).Raw(nextSaleNumberSQL, organizationID).Scan(&next).Error; err != nil {
		return 0, err
	}
	if next <= 0 {
		return 0, shared.NewDomainError("INTERNAL_ERROR", "sale counter returned no value")
	}
	return next, nil
}
