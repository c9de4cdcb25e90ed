package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCategoryRepository implements catalog.CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByIDForTenant finds a category within an organization
func (r *GormCategoryRepository) FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*catalog.Category, error) {
	var c catalog.Category
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindAllForTenant lists categories ordered by sort order then name
func (r *GormCategoryRepository) FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]catalog.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{}).Scopes(tenant.Scope(organizationID))
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "sort_order ASC, name ASC"
	if filter.OrderBy != "" {
		order = orderClause(filter, CategorySortFields, "sort_order")
	}
	var categories []catalog.Category
	if err := paginate(query.Order(order), filter).Find(&categories).Error; err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// ExistsByName reports whether another category already uses the name
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, organizationID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{}).
		Scopes(tenant.Scope(organizationID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return translate(r.db.WithContext(ctx).Save(category).Error)
}

// DeleteForTenant detaches products from the category and deletes it
func (r *GormCategoryRepository) DeleteForTenant(ctx context.Context, organizationID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&catalog.Product{}).
			Scopes(tenant.Scope(organizationID)).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		result := tx.Scopes(tenant.Scope(organizationID)).Where("id = ?", id).Delete(&catalog.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GormProductRepository implements catalog.ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDForTenant finds a product within an organization
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, organizationID, id uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Scopes(tenant.Scope(organizationID)).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindByIDForUpdate loads a product with SELECT ... FOR UPDATE
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(organizationID)).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindByIDs loads the given products of one organization
func (r *GormProductRepository) FindByIDs(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

// FindAllForTenant lists products matching the filter
func (r *GormProductRepository) FindAllForTenant(ctx context.Context, organizationID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Product{}).Scopes(tenant.Scope(organizationID))
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(sku) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.ShowInCatalog != nil {
		query = query.Where("show_in_catalog = ?", *filter.ShowInCatalog)
	}
	if filter.InStockOnly {
		query = query.Where("stock > 0")
	}
	if filter.LowStockOnly {
		query = query.Where("stock <= min_stock")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []catalog.Product
	err := paginate(query.Preload("Category").Order(orderClause(filter.Filter, ProductSortFields, "created_at")), filter.Filter).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ExistsBySKU reports whether another product of the organization uses the SKU
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, organizationID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Scopes(tenant.Scope(organizationID)).
		Where("sku = ?", sku)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// CountLowStock counts active products at or under their threshold
func (r *GormProductRepository) CountLowStock(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Scopes(tenant.Scope(organizationID)).
		Where("active = ? AND stock <= min_stock", true).
		Count(&count).Error
	return count, err
}

// CountLowStockByOrganization counts low-stock products for every
// organization that has at least one
func (r *GormProductRepository) CountLowStockByOrganization(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		OrganizationID uuid.UUID
		Count          int64
	}
	err := r.db.WithContext(ctx).Scopes(tenant.CrossTenant).Model(&catalog.Product{}).
		Select("organization_id, COUNT(*) AS count").
		Where("active = ? AND stock <= min_stock", true).
		Group("organization_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.OrganizationID] = row.Count
	}
	return out, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Category").Save(product).Error)
}

// DeleteForTenant deletes a product
func (r *GormProductRepository) DeleteForTenant(ctx context.Context, organizationID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(tenant.Scope(organizationID)).Where("id = ?", id).Delete(&catalog.Product{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
