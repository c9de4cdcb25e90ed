package storefront

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apptrade "github.com/storehub/backend/internal/application/trade"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/tests/testutil"
)

type env struct {
	db    *gorm.DB
	repos *persistence.Repositories
	org   *identity.Organization
	sales *apptrade.SaleService
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	org := testutil.SeedOrganization(t, db, "Loja da Ana", "loja-da-ana")
	repos := persistence.NewRepositories(db)
	sales := apptrade.NewSaleService(
		persistence.NewGormTransactionScope(db),
		repos.Sales(),
		repos.Customers(),
		repos.Organizations(),
		nil,
		testutil.NewRecordingPublisher(),
		zap.NewNop(),
	)
	return env{db: db, repos: repos, org: org, sales: sales}
}

func (e env) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	p, err := e.repos.Products().FindByIDForTenant(context.Background(), e.org.ID, productID)
	require.NoError(t, err)
	return p.Stock
}

func (e env) enableProviders(t *testing.T) {
	t.Helper()
	testutil.UpdateCatalogSettings(t, e.db, e.org.ID, func(s *storefront.CatalogSettings) {
		s.StripeEnabled = true
		s.AsaasEnabled = true
	})
}

type mockGateway struct {
	mock.Mock
	provider string
}

func (m *mockGateway) Provider() string { return m.provider }

func (m *mockGateway) CreateCheckout(ctx context.Context, req payment.CreateCheckoutRequest) (*payment.CreateCheckoutResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*payment.CreateCheckoutResponse)
	return resp, args.Error(1)
}

type mockCheckoutRecorder struct {
	mock.Mock
}

func (m *mockCheckoutRecorder) CheckoutStarted(ctx context.Context, provider string, err error) {
	m.Called(ctx, provider, err)
}
