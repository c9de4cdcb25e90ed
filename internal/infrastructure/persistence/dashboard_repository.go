package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/report"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormDashboardRepository implements report.DashboardRepository with aggregate SQL
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func (r *GormDashboardRepository) salesInPeriod(ctx context.Context, f report.DashboardFilter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&trade.Sale{}).
		Scopes(tenant.Scope(f.OrganizationID)).
		Where("status <> ? AND created_at >= ? AND created_at < ?", trade.SaleStatusCancelled, f.From, f.To)
}

// SalesTotals counts sales and sums revenue
func (r *GormDashboardRepository) SalesTotals(ctx context.Context, f report.DashboardFilter) (report.SalesTotals, error) {
	var totals report.SalesTotals
	err := r.salesInPeriod(ctx, f).
		Select("COUNT(*) AS sales_count, COALESCE(SUM(total), 0) AS revenue").
		Scan(&totals).Error
	return totals, err
}

// SalesPerDay groups sales by calendar day (database time zone)
func (r *GormDashboardRepository) SalesPerDay(ctx context.Context, f report.DashboardFilter) ([]report.DailySales, error) {
	day := "TO_CHAR(created_at, 'YYYY-MM-DD')"
	if r.db.Dialector.Name() == "sqlite" {
		day = "strftime('%Y-%m-%d', created_at)"
	}

	var rows []report.DailySales
	err := r.salesInPeriod(ctx, f).
		Select(day + " AS date, COUNT(*) AS sales_count, COALESCE(SUM(total), 0) AS revenue").
		Group(day).
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks products by quantity sold in the period
func (r *GormDashboardRepository) TopProducts(ctx context.Context, f report.DashboardFilter) ([]report.TopProduct, error) {
	var rows []report.TopProduct
	err := r.db.WithContext(ctx).
		Table("sale_items AS si").
		Joins("JOIN sales AS s ON s.id = si.sale_id").
		Where("s.organization_id = ? AND s.status <> ? AND s.created_at >= ? AND s.created_at < ?",
			f.OrganizationID, trade.SaleStatusCancelled, f.From, f.To).
		Select("si.product_id AS product_id, MAX(si.product_name) AS product_name, " +
			"SUM(si.quantity) AS quantity, COALESCE(SUM(si.total), 0) AS revenue").
		Group("si.product_id").
		Order("quantity DESC").
		Limit(f.TopN).
		Scan(&rows).Error
	return rows, err
}

// CountProducts counts active products
func (r *GormDashboardRepository) CountProducts(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Scopes(tenant.Scope(organizationID)).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}
