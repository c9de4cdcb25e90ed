package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormCustomerRepository implements partner.CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByIDForTenant finds a customer within an organization
func (r *GormCustomerRepository) FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*partner.Customer, error) {
	var c partner.Customer
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindByEmail finds a customer by email within an organization
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (*partner.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Email cannot be empty")
	}
	var c partner.Customer
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).Where("email = ?", email).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindAllForTenant lists customers, searching name, email and document
func (r *GormCustomerRepository) FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]partner.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&partner.Customer{}).Scopes(tenant.Scope(organizationID))
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR document LIKE ? ESCAPE '\\')",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []partner.Customer
	err := paginate(query.Order(orderClause(filter, CustomerSortFields, "created_at")), filter).Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// ExistsByEmail reports whether another customer of the organization uses the email
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, organizationID uuid.UUID, email string, excludeID *uuid.UUID) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&partner.Customer{}).
		Scopes(tenant.Scope(organizationID)).
		Where("email = ?", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// CountForTenant counts the customers of an organization
func (r *GormCustomerRepository) CountForTenant(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&partner.Customer{}).Scopes(tenant.Scope(organizationID)).Count(&count).Error
	return count, err
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return translate(r.db.WithContext(ctx).Save(customer).Error)
}

// DeleteForTenant deletes a customer
func (r *GormCustomerRepository) DeleteForTenant(ctx context.Context, organizationID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).Where("id = ?", id).Delete(&partner.Customer{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
