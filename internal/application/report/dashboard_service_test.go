package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apptrade "github.com/storehub/backend/internal/application/trade"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/tests/testutil"
)

func TestDashboardService_Summary(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	org := testutil.SeedOrganization(t, db, "Loja", "loja")
	other := testutil.SeedOrganization(t, db, "Outra", "outra")

	shirt := testutil.SeedProduct(t, db, org.ID, "Camisa", "50.00", 10)
	hat := testutil.SeedProduct(t, db, org.ID, "Bone", "30.00", 3)
	testutil.SeedProduct(t, db, org.ID, "Meia", "10.00", 0)
	testutil.SeedProduct(t, db, other.ID, "Alheio", "99.00", 5)
	testutil.SeedCustomer(t, db, org.ID, "Maria", "maria@example.com")
	testutil.SeedCustomer(t, db, org.ID, "Joao", "joao@example.com")
	testutil.SeedCustomer(t, db, other.ID, "Ana", "ana@example.com")

	sales := apptrade.NewSaleService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormSaleRepository(db),
		persistence.NewGormCustomerRepository(db),
		persistence.NewGormOrganizationRepository(db),
		nil,
		testutil.NewRecordingPublisher(),
		zap.NewNop(),
	)
	sell := func(orgID, productID uuid.UUID, qty int) *apptrade.SaleResponse {
		sale, err := sales.Create(ctx, orgID, apptrade.CreateSaleRequest{
			Items: []apptrade.SaleItemInput{{ProductID: productID, Quantity: qty}},
		})
		require.NoError(t, err)
		return sale
	}
	sell(org.ID, shirt.ID, 2)
	sell(org.ID, hat.ID, 3)
	cancelled := sell(org.ID, shirt.ID, 5)
	_, err := sales.Cancel(ctx, org.ID, cancelled.ID, nil)
	require.NoError(t, err)

	svc := NewDashboardService(
		persistence.NewGormDashboardRepository(db),
		persistence.NewGormProductRepository(db),
		persistence.NewGormCustomerRepository(db),
		zap.NewNop(),
	)
	summary, err := svc.Summary(ctx, org.ID, DashboardQuery{})
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.SalesCount)
	assert.True(t, summary.Revenue.Equal(testutil.Decimal("190.00")), summary.Revenue.String())
	assert.True(t, summary.AverageTicket.Equal(testutil.Decimal("95.00")), summary.AverageTicket.String())
	assert.EqualValues(t, 2, summary.CustomersCount)
	assert.EqualValues(t, 3, summary.ProductsCount)
	assert.EqualValues(t, 2, summary.LowStockCount, "hat sold out and socks never stocked")

	require.Len(t, summary.TopProducts, 2)
	assert.Equal(t, hat.ID, summary.TopProducts[0].ProductID)
	assert.EqualValues(t, 3, summary.TopProducts[0].Quantity)
	assert.Equal(t, "Camisa", summary.TopProducts[1].ProductName)

	require.Len(t, summary.SalesPerDay, 1)
	assert.EqualValues(t, 2, summary.SalesPerDay[0].SalesCount)
	assert.Equal(t, time.Now().Format("2006-01-02"), summary.SalesPerDay[0].Date)
}

func TestDashboardService_EmptyPeriod(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	org := testutil.SeedOrganization(t, db, "Loja", "loja")
	svc := NewDashboardService(
		persistence.NewGormDashboardRepository(db),
		persistence.NewGormProductRepository(db),
		persistence.NewGormCustomerRepository(db),
		nil,
	)

	from := time.Date(2020, 1, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	summary, err := svc.Summary(context.Background(), org.ID, DashboardQuery{From: &from, To: &to})
	require.NoError(t, err)

	assert.Zero(t, summary.SalesCount)
	assert.True(t, summary.AverageTicket.IsZero())
	assert.Empty(t, summary.TopProducts)
	assert.NotNil(t, summary.SalesPerDay)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), summary.From)
	assert.Equal(t, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), summary.To)
}

func TestDashboardService_InvalidPeriod(t *testing.T) {
	svc := NewDashboardService(nil, nil, nil, nil)
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name string
		q    DashboardQuery
	}{
		{"from after to", DashboardQuery{From: day(2024, 3, 10), To: day(2024, 3, 1)}},
		{"longer than a year", DashboardQuery{From: day(2022, 1, 1), To: day(2024, 1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Summary(context.Background(), uuid.New(), tt.q)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		})
	}
}
