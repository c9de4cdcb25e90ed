package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormCatalogSettingsRepository implements storefront.CatalogSettingsRepository
type GormCatalogSettingsRepository struct {
	db *gorm.DB
}

// NewGormCatalogSettingsRepository creates a new GormCatalogSettingsRepository
func NewGormCatalogSettingsRepository(db *gorm.DB) *GormCatalogSettingsRepository {
	return &GormCatalogSettingsRepository{db: db}
}

// FindByOrganization returns the storefront settings of an organization
func (r *GormCatalogSettingsRepository) FindByOrganization(ctx context.Context, organizationID uuid.UUID) (*storefront.CatalogSettings, error) {
	var s storefront.CatalogSettings
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Save creates or updates settings
func (r *GormCatalogSettingsRepository) Save(ctx context.Context, settings *storefront.CatalogSettings) error {
	return translate(r.db.WithContext(ctx).Save(settings).Error)
}

// GormCatalogUserRepository implements storefront.CatalogUserRepository
type GormCatalogUserRepository struct {
	db *gorm.DB
}

// NewGormCatalogUserRepository creates a new GormCatalogUserRepository
func NewGormCatalogUserRepository(db *gorm.DB) *GormCatalogUserRepository {
	return &GormCatalogUserRepository{db: db}
}

// FindByID finds a catalog user of an organization
func (r *GormCatalogUserRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*storefront.CatalogUser, error) {
	var u storefront.CatalogUser
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindByEmail finds a catalog user by email
func (r *GormCatalogUserRepository) FindByEmail(ctx context.Context, organizationID uuid.UUID, email string) (*storefront.CatalogUser, error) {
	var u storefront.CatalogUser
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ExistsByEmail reports whether the storefront already has an account for email
func (r *GormCatalogUserRepository) ExistsByEmail(ctx context.Context, organizationID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&storefront.CatalogUser{}).
		Scopes(tenant.Scope(organizationID)).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a catalog user
func (r *GormCatalogUserRepository) Save(ctx context.Context, user *storefront.CatalogUser) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// GormCheckoutRepository implements storefront.CheckoutRepository
type GormCheckoutRepository struct {
	db *gorm.DB
}

// NewGormCheckoutRepository creates a new GormCheckoutRepository
func NewGormCheckoutRepository(db *gorm.DB) *GormCheckoutRepository {
	return &GormCheckoutRepository{db: db}
}

// FindByID finds a checkout regardless of organization; webhooks only know the id
func (r *GormCheckoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*storefront.Checkout, error) {
	var c storefront.Checkout
	if err := tenant.CrossTenant(r.db.WithContext(ctx)).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Save creates or updates a checkout
func (r *GormCheckoutRepository) Save(ctx context.Context, checkout *storefront.Checkout) error {
	return translate(r.db.WithContext(ctx).Save(checkout).Error)
}

// ExpirePending flags every pending checkout past its deadline as expired
func (r *GormCheckoutRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result := tenant.CrossTenant(r.db.WithContext(ctx)).Model(&storefront.Checkout{}).
		Where("status = ? AND expires_at < ?", storefront.CheckoutStatusPending, now).
		Updates(map[string]any{
			"status":     storefront.CheckoutStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
