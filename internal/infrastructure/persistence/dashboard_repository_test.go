package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storehub/backend/internal/domain/report"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRepository(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	dash := NewGormDashboardRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	mug := seedProduct(t, repos, orgID, "Caneca", 25, 10, 0)
	cake := seedProduct(t, repos, orgID, "Bolo", 40, 10, 0)

	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	record := func(at time.Time, lines []trade.SaleLine, cancel bool, number int64) {
		sale, err := trade.NewSale(orgID, lines, trade.SaleOptions{})
		require.NoError(t, err)
		sale.AssignNumber(number)
		sale.CreatedAt = at
		sale.UpdatedAt = at
		if cancel {
			require.NoError(t, sale.Cancel())
		}
		require.NoError(t, repos.Sales().Create(ctx, sale))
	}
	line := func(p uuid.UUID, name string, qty int, price int64) trade.SaleLine {
		return trade.SaleLine{ProductID: p, ProductName: name, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
	}

	record(day1, []trade.SaleLine{line(mug.ID, "Caneca", 2, 25)}, false, 1)
	record(day1, []trade.SaleLine{line(cake.ID, "Bolo", 1, 40), line(mug.ID, "Caneca", 1, 25)}, false, 2)
	record(day2, []trade.SaleLine{line(cake.ID, "Bolo", 5, 40)}, true, 3)
	record(day2, []trade.SaleLine{line(mug.ID, "Caneca", 1, 25)}, false, 4)

	f := report.DashboardFilter{
		OrganizationID: orgID,
		From:           day1.Add(-time.Hour),
		To:             day2.Add(time.Hour),
		TopN:           5,
	}

	totals, err := dash.SalesTotals(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.SalesCount)
	assert.True(t, decimal.NewFromInt(140).Equal(totals.Revenue), "revenue %s", totals.Revenue)

	perDay, err := dash.SalesPerDay(ctx, f)
	require.NoError(t, err)
	require.Len(t, perDay, 2)
	assert.Equal(t, "2026-03-01", perDay[0].Date)
	assert.Equal(t, int64(2), perDay[0].SalesCount)
	assert.Equal(t, "2026-03-02", perDay[1].Date)
	assert.Equal(t, int64(1), perDay[1].SalesCount)

	top, err := dash.TopProducts(ctx, f)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, mug.ID, top[0].ProductID)
	assert.Equal(t, int64(4), top[0].Quantity)
	assert.Equal(t, int64(1), top[1].Quantity)

	count, err := dash.CountProducts(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	empty, err := dash.SalesTotals(ctx, report.DashboardFilter{OrganizationID: uuid.New(), From: f.From, To: f.To})
	require.NoError(t, err)
	assert.Zero(t, empty.SalesCount)
}
