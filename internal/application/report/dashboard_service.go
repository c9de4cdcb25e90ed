// Package report builds the admin dashboard read model.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/report"
	"github.com/storehub/backend/internal/domain/shared"
)

const maxPeriod = 366 * 24 * time.Hour

// DashboardQuery is the requested period. From and To are calendar days and
// To is inclusive.
type DashboardQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
	Top  int        `form:"top" binding:"omitempty,min=1,max=50"`
}

// DashboardService aggregates sales, customers and stock figures
type DashboardService struct {
	dashboard report.DashboardRepository
	products  catalog.ProductRepository
	customers partner.CustomerRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	dashboard report.DashboardRepository,
	products catalog.ProductRepository,
	customers partner.CustomerRepository,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		dashboard: dashboard,
		products:  products,
		customers: customers,
		logger:    logger,
		now:       time.Now,
	}
}

// Summary returns the dashboard for the period, defaulting to the last 30 days
func (s *DashboardService) Summary(ctx context.Context, organizationID uuid.UUID, q DashboardQuery) (*report.DashboardSummary, error) {
	filter, err := s.filter(organizationID, q)
	if err != nil {
		return nil, err
	}

	var (
		totals    report.SalesTotals
		perDay    []report.DailySales
		top       []report.TopProduct
		customers int64
		products  int64
		lowStock  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.dashboard.SalesTotals(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		perDay, err = s.dashboard.SalesPerDay(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		top, err = s.dashboard.TopProducts(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.dashboard.CountProducts(gctx, organizationID)
		return err
	})
	g.Go(func() (err error) {
		customers, err = s.customers.CountForTenant(gctx, organizationID)
		return err
	})
	g.Go(func() (err error) {
		lowStock, err = s.products.CountLowStock(gctx, organizationID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Dashboard query failed",
			zap.String("organization_id", organizationID.String()),
			zap.Error(err))
		return nil, err
	}

	if top == nil {
		top = []report.TopProduct{}
	}
	if perDay == nil {
		perDay = []report.DailySales{}
	}
	return &report.DashboardSummary{
		From:           filter.From,
		To:             filter.To,
		SalesCount:     totals.SalesCount,
		Revenue:        totals.Revenue,
		AverageTicket:  totals.AverageTicket(),
		CustomersCount: customers,
		ProductsCount:  products,
		LowStockCount:  lowStock,
		TopProducts:    top,
		SalesPerDay:    perDay,
	}, nil
}

func (s *DashboardService) filter(organizationID uuid.UUID, q DashboardQuery) (report.DashboardFilter, error) {
	f := report.DashboardFilter{OrganizationID: organizationID, TopN: q.Top}
	if q.From != nil {
		f.From = startOfDay(*q.From)
	}
	if q.To != nil {
		f.To = startOfDay(*q.To).AddDate(0, 0, 1)
	}
	f.Normalize(s.now())

	if !f.From.Before(f.To) {
		return f, shared.ErrInvalidInput.WithMessage("from must be before to")
	}
	if f.To.Sub(f.From) > maxPeriod {
		return f, shared.ErrInvalidInput.WithMessage("The dashboard period is limited to one year")
	}
	return f, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
