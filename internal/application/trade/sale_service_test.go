package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/internal/infrastructure/printing"
	"github.com/storehub/backend/tests/testutil"
)

type saleFixture struct {
	db     *gorm.DB
	svc    *SaleService
	events *testutil.RecordingPublisher
	orgID  uuid.UUID
}

func newSaleFixture(t *testing.T) saleFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	org := testutil.SeedOrganization(t, db, "Loja", "loja")
	printer, err := printing.NewReceiptPrinter(printing.NewMoneyFormatter("pt-BR", "BRL"), nil)
	require.NoError(t, err)
	events := testutil.NewRecordingPublisher()
	svc := NewSaleService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormSaleRepository(db),
		persistence.NewGormCustomerRepository(db),
		persistence.NewGormOrganizationRepository(db),
		printer,
		events,
		zap.NewNop(),
	)
	return saleFixture{db: db, svc: svc, events: events, orgID: org.ID}
}

func (f saleFixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	p, err := persistence.NewGormProductRepository(f.db).FindByIDForTenant(context.Background(), f.orgID, productID)
	require.NoError(t, err)
	return p.Stock
}

func TestSaleService_Create(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	shirt := testutil.SeedProduct(t, f.db, f.orgID, "Camisa", "50.00", 10)
	hat := testutil.SeedProduct(t, f.db, f.orgID, "Bone", "30.00", 2)
	customer := testutil.SeedCustomer(t, f.db, f.orgID, "Maria", "maria@example.com")
	special := decimal.RequireFromString("25.00")

	sale, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{
		CustomerID: &customer.ID,
		Items: []SaleItemInput{
			{ProductID: shirt.ID, Quantity: 2},
			{ProductID: hat.ID, Quantity: 1, UnitPrice: &special},
		},
		Discount:      decimal.RequireFromString("5.00"),
		PaymentMethod: trade.PaymentMethodPix,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, sale.Number)
	assert.Equal(t, trade.SaleStatusCompleted, sale.Status)
	assert.True(t, sale.Subtotal.Equal(decimal.RequireFromString("125.00")))
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("120.00")))
	assert.Equal(t, "Maria", sale.CustomerName)
	assert.Equal(t, 8, f.stock(t, shirt.ID))
	assert.Equal(t, 1, f.stock(t, hat.ID))
	assert.Contains(t, f.events.Types(), trade.EventTypeSaleCreated)

	second, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: shirt.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Number)
	assert.Equal(t, trade.PaymentMethodCash, second.PaymentMethod)

	t.Run("insufficient stock rolls back everything", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{
			{ProductID: shirt.ID, Quantity: 1},
			{ProductID: hat.ID, Quantity: 5},
		}})
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 7, f.stock(t, shirt.ID))

		third, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: shirt.ID, Quantity: 1}}})
		require.NoError(t, err)
		assert.EqualValues(t, 3, third.Number, "a rolled back sale does not consume a number")
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{
			Items:    []SaleItemInput{{ProductID: shirt.ID, Quantity: 1}},
			Discount: decimal.NewFromInt(100),
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("foreign customer", func(t *testing.T) {
		other := testutil.SeedOrganization(t, f.db, "Outra", "outra")
		stranger := testutil.SeedCustomer(t, f.db, other.ID, "Joao", "joao@example.com")
		_, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{CustomerID: &stranger.ID, Items: []SaleItemInput{{ProductID: shirt.ID, Quantity: 1}}})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: uuid.New(), Quantity: 1}}})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestSaleService_NumbersArePerOrganization(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	other := testutil.SeedOrganization(t, f.db, "Outra", "outra")
	mine := testutil.SeedProduct(t, f.db, f.orgID, "A", "1.00", 10)
	theirs := testutil.SeedProduct(t, f.db, other.ID, "B", "1.00", 10)

	for i := 1; i <= 3; i++ {
		s, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: mine.ID, Quantity: 1}}})
		require.NoError(t, err)
		assert.EqualValues(t, i, s.Number)
	}
	s, err := f.svc.Create(ctx, other.ID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: theirs.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.Number)

	_, err = f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: theirs.ID, Quantity: 1}}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput), "products of another organization are invisible")
}

func TestSaleService_RecordExternalSale(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, f.db, f.orgID, "Vestido", "120.00", 1)
	customer := testutil.SeedCustomer(t, f.db, f.orgID, "Ana", "ana@example.com")

	input := ExternalSaleInput{
		OrganizationID: f.orgID,
		CustomerID:     &customer.ID,
		Provider:       trade.PaymentProviderStripe,
		ExternalID:     "cs_test_123",
		PaymentMethod:  trade.PaymentMethodStripe,
		Lines: []trade.SaleLine{
			{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("110.00")},
		},
	}

	sale, created, err := f.svc.RecordExternalSale(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, trade.SaleSourceCatalog, sale.Source)
	assert.Equal(t, "Vestido", sale.Items[0].ProductName)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("220.00")))
	assert.Equal(t, 0, f.stock(t, product.ID), "oversold paid sales drain stock to zero")

	again, created, err := f.svc.RecordExternalSale(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sale.ID, again.ID)

	page, err := f.svc.List(ctx, f.orgID, SaleListFilter{Source: "CATALOG"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	t.Run("deleted product keeps its snapshot", func(t *testing.T) {
		restocked := testutil.SeedProduct(t, f.db, f.orgID, "Saia", "80.00", 4)
		gone := uuid.New()
		late := input
		late.ExternalID = "cs_test_456"
		late.Lines = []trade.SaleLine{
			{ProductID: gone, ProductName: "Casaco", Quantity: 1, UnitPrice: decimal.RequireFromString("99.00")},
			{ProductID: restocked.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("80.00")},
		}

		sale, created, err := f.svc.RecordExternalSale(ctx, late)
		require.NoError(t, err)
		assert.True(t, created)
		require.Len(t, sale.Items, 2)
		assert.Equal(t, gone, sale.Items[0].ProductID)
		assert.Equal(t, "Casaco", sale.Items[0].ProductName)
		assert.True(t, sale.Total.Equal(decimal.RequireFromString("179.00")))
		assert.Equal(t, 3, f.stock(t, restocked.ID))

		movements, total, err := persistence.NewGormStockMovementRepository(f.db).FindAllForTenant(ctx, f.orgID, inventory.MovementFilter{
			Filter: shared.DefaultFilter(),
			SaleID: &sale.ID,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, restocked.ID, movements[0].ProductID)
	})
}

func TestSaleService_PendingSale(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, f.db, f.orgID, "Kit", "40.00", 5)

	sale, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{
		Items:         []SaleItemInput{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: trade.PaymentMethodBoleto,
		Pending:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, trade.SaleStatusPending, sale.Status)
	assert.Nil(t, sale.CompletedAt)
	assert.Equal(t, 2, sale.ItemCount)
	assert.Equal(t, 3, f.stock(t, product.ID), "a pending sale reserves its stock")

	page, err := f.svc.List(ctx, f.orgID, SaleListFilter{Status: "PENDING"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	done, err := f.svc.Complete(ctx, f.orgID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.SaleStatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, 3, f.stock(t, product.ID))

	_, err = f.svc.Complete(ctx, f.orgID, sale.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	_, err = f.svc.Complete(ctx, uuid.New(), sale.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	t.Run("cancelling a pending sale returns its stock", func(t *testing.T) {
		open, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{
			Items:   []SaleItemInput{{ProductID: product.ID, Quantity: 1}},
			Pending: true,
		})
		require.NoError(t, err)
		require.Equal(t, 2, f.stock(t, product.ID))

		_, err = f.svc.Cancel(ctx, f.orgID, open.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, f.stock(t, product.ID))
	})
}

func TestSaleService_CancelRestoresStock(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, f.db, f.orgID, "Meia", "9.90", 3)

	external, _, err := f.svc.RecordExternalSale(ctx, ExternalSaleInput{
		OrganizationID: f.orgID,
		Provider:       trade.PaymentProviderAsaas,
		ExternalID:     "pay_1",
		PaymentMethod:  trade.PaymentMethodAsaas,
		Lines:          []trade.SaleLine{{ProductID: product.ID, Quantity: 5, UnitPrice: decimal.RequireFromString("9.90")}},
	})
	require.NoError(t, err)
	require.Equal(t, 0, f.stock(t, product.ID))

	userID := uuid.New()
	cancelled, err := f.svc.Cancel(ctx, f.orgID, external.ID, &userID)
	require.NoError(t, err)
	assert.Equal(t, trade.SaleStatusCancelled, cancelled.Status)
	assert.Equal(t, 3, f.stock(t, product.ID), "only what actually left stock comes back")
	assert.Contains(t, f.events.Types(), trade.EventTypeSaleCancelled)

	_, err = f.svc.Cancel(ctx, f.orgID, external.ID, &userID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	movements, _, err := persistence.NewGormStockMovementRepository(f.db).FindAllForTenant(ctx, f.orgID, inventory.MovementFilter{
		Filter: shared.DefaultFilter(),
		SaleID: &external.ID,
		Type:   inventory.MovementTypeIn,
	})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.ReasonSaleCancelled, movements[0].Reason)
	assert.Equal(t, &userID, movements[0].CreatedBy)
}

func TestSaleService_StockLowEventPublished(t *testing.T) {
	f := newSaleFixture(t)
	product := testutil.SeedProduct(t, f.db, f.orgID, "Agenda", "20.00", 3)
	require.NoError(t, product.SetMinStock(2))
	require.NoError(t, persistence.NewGormProductRepository(f.db).Save(context.Background(), product))

	_, err := f.svc.Create(context.Background(), f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: product.ID, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, []string{trade.EventTypeSaleCreated, catalog.EventTypeProductStockLow}, f.events.Types())
}

func TestSaleService_Receipt(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, f.db, f.orgID, "Caneca Azul", "15.00", 3)
	sale, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: product.ID, Quantity: 1}}})
	require.NoError(t, err)

	receipt, err := f.svc.Receipt(ctx, f.orgID, sale.ID, ReceiptHTML)
	require.NoError(t, err)
	assert.Equal(t, "venda-1.html", receipt.Filename)
	assert.Contains(t, string(receipt.Body), "Caneca Azul")

	_, err = f.svc.Receipt(ctx, f.orgID, sale.ID, ReceiptPDF)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = f.svc.Receipt(ctx, uuid.New(), sale.ID, ReceiptHTML)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestSaleService_ListFilters(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	product := testutil.SeedProduct(t, f.db, f.orgID, "Lapis", "2.00", 50)
	customer := testutil.SeedCustomer(t, f.db, f.orgID, "Carla", "carla@example.com")

	_, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{CustomerID: &customer.ID, Items: []SaleItemInput{{ProductID: product.ID, Quantity: 1}}})
	require.NoError(t, err)
	walkIn, err := f.svc.Create(ctx, f.orgID, CreateSaleRequest{Items: []SaleItemInput{{ProductID: product.ID, Quantity: 2}}})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.orgID, walkIn.ID, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter SaleListFilter
		want   int64
	}{
		{"all", SaleListFilter{}, 2},
		{"by customer", SaleListFilter{CustomerID: customer.ID.String()}, 1},
		{"cancelled", SaleListFilter{Status: "CANCELLED"}, 1},
		{"admin source", SaleListFilter{Source: "ADMIN"}, 2},
		{"catalog source", SaleListFilter{Source: "CATALOG"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.List(ctx, f.orgID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
		})
	}

	other, err := f.svc.List(ctx, uuid.New(), SaleListFilter{})
	require.NoError(t, err)
	assert.Zero(t, other.Total)

	_, err = f.svc.Get(ctx, uuid.New(), walkIn.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
