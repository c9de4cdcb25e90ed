package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardFilter bounds the dashboard period. Cancelled sales never count.
type DashboardFilter struct {
	OrganizationID uuid.UUID
	From           time.Time
	To             time.Time
	TopN           int
}

// Normalize fills a default 30 day window and top-5 ranking
func (f *DashboardFilter) Normalize(now time.Time) {
	if f.To.IsZero() {
		f.To = now
	}
	if f.From.IsZero() {
		f.From = f.To.AddDate(0, 0, -30)
	}
	if f.TopN <= 0 || f.TopN > 50 {
		f.TopN = 5
	}
}

// SalesTotals aggregates non-cancelled sales in a period
type SalesTotals struct {
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// AverageTicket returns revenue / sales count, zero when there are no sales
func (t SalesTotals) AverageTicket() decimal.Decimal {
	if t.SalesCount == 0 {
		return decimal.Zero
	}
	return t.Revenue.Div(decimal.NewFromInt(t.SalesCount)).Round(2)
}

// DailySales is one point of the sales-per-day series
type DailySales struct {
	Date       string          `json:"date"` // YYYY-MM-DD
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// TopProduct ranks products by units sold
type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// DashboardSummary is the admin landing page read model
type DashboardSummary struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	SalesCount     int64           `json:"sales_count"`
	Revenue        decimal.Decimal `json:"revenue"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	CustomersCount int64           `json:"customers_count"`
	ProductsCount  int64           `json:"products_count"`
	LowStockCount  int64           `json:"low_stock_count"`
	TopProducts    []TopProduct    `json:"top_products"`
	SalesPerDay    []DailySales    `json:"sales_per_day"`
}

// DashboardRepository answers the aggregate queries behind the dashboard
type DashboardRepository interface {
	SalesTotals(ctx context.Context, filter DashboardFilter) (SalesTotals, error)
	SalesPerDay(ctx context.Context, filter DashboardFilter) ([]DailySales, error)
	TopProducts(ctx context.Context, filter DashboardFilter) ([]TopProduct, error)
	CountProducts(ctx context.Context, organizationID uuid.UUID) (int64, error)
}
