package storefront

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/cache"
	"github.com/storehub/backend/internal/infrastructure/telemetry"
	"github.com/storehub/backend/tests/testutil"
)

// fakeStripe returns a canned event for the signature "valid"
type fakeStripe struct {
	event     *payment.WebhookEvent
	lineItems []payment.ProviderLineItem
	listErr   error
}

func (f *fakeStripe) ParseWebhook(_ []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "valid" {
		return nil, fmt.Errorf("stripe: %w: bad signature", payment.ErrInvalidSignature)
	}
	evt := *f.event
	return &evt, nil
}

func (f *fakeStripe) ListLineItems(context.Context, string) ([]payment.ProviderLineItem, error) {
	return f.lineItems, f.listErr
}

type fakeAsaas struct {
	event *payment.WebhookEvent
}

func (f *fakeAsaas) VerifyWebhookToken(token string) bool { return token == "asaas-token" }

func (f *fakeAsaas) ParseWebhook([]byte) (*payment.WebhookEvent, error) {
	if f.event == nil {
		return nil, fmt.Errorf("asaas: %w: missing event", payment.ErrInvalidPayload)
	}
	evt := *f.event
	return &evt, nil
}

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) WebhookHandled(_ context.Context, provider, outcome string) {
	r.outcomes = append(r.outcomes, provider+":"+outcome)
}

type webhookFixture struct {
	env
	svc      *WebhookService
	stripe   *fakeStripe
	asaas    *fakeAsaas
	recorder *countingRecorder
	customer *partner.Customer
	product  *catalog.Product
}

func newWebhookFixture(t *testing.T) webhookFixture {
	t.Helper()
	e := newEnv(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	f := webhookFixture{
		env:      e,
		stripe:   &fakeStripe{},
		asaas:    &fakeAsaas{},
		recorder: &countingRecorder{},
		customer: testutil.SeedCustomer(t, e.db, e.org.ID, "Fabi", "fabi@example.com"),
		product:  testutil.SeedProduct(t, e.db, e.org.ID, "Mochila", "120.00", 5),
	}
	f.svc = NewWebhookService(WebhookDeps{
		Organizations: e.repos.Organizations(),
		Customers:     e.repos.Customers(),
		Checkouts:     e.repos.Checkouts(),
		Sales:         e.sales,
		Stripe:        f.stripe,
		Asaas:         f.asaas,
		Idempotency:   store,
		Metrics:       f.recorder,
		DedupTTL:      time.Hour,
		Logger:        zap.NewNop(),
	})
	return f
}

func (f webhookFixture) checkout(t *testing.T, provider string, qty int) *storefront.Checkout {
	t.Helper()
	c, err := storefront.NewCheckout(f.org.ID, f.customer.ID, provider,
		[]storefront.CheckoutItem{{ProductID: f.product.ID, ProductName: f.product.Name, Quantity: qty, UnitPrice: f.product.Price}}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.repos.Checkouts().Save(context.Background(), c))
	return c
}

func (f webhookFixture) paidSession(eventID, sessionID string, checkoutID uuid.UUID) *payment.WebhookEvent {
	return &payment.WebhookEvent{
		Provider:    storefront.ProviderStripe,
		EventID:     eventID,
		Type:        "checkout.session.completed",
		Paid:        true,
		ProviderRef: sessionID,
		Metadata: map[string]string{
			payment.MetadataOrganizationID: f.org.ID.String(),
			payment.MetadataCustomerID:     f.customer.ID.String(),
			payment.MetadataCheckoutID:     checkoutID.String(),
		},
		Amount: testutil.Decimal("240.00"),
	}
}

func TestWebhookService_StripeCreatesSale(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	checkout := f.checkout(t, storefront.ProviderStripe, 2)
	f.stripe.event = f.paidSession("evt_1", "cs_1", checkout.ID)
	f.stripe.lineItems = []payment.ProviderLineItem{
		{ProductID: f.product.ID, Description: "Mochila", Quantity: 2, UnitAmount: 12000, Currency: "brl"},
	}

	res, err := f.svc.HandleStripe(ctx, []byte(`{}`), "valid")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, res.Outcome)
	assert.EqualValues(t, 1, res.SaleNumber)
	assert.Equal(t, 3, f.stock(t, f.product.ID))

	sale, err := f.repos.Sales().FindByExternalID(ctx, f.org.ID, trade.PaymentProviderStripe, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, trade.SaleSourceCatalog, sale.Source)
	assert.Equal(t, &f.customer.ID, sale.CustomerID)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 2, sale.Items[0].Quantity)
	assert.True(t, sale.Items[0].UnitPrice.Equal(testutil.Decimal("120.00")))
	assert.True(t, sale.Total.Equal(testutil.Decimal("240.00")))

	done, err := f.repos.Checkouts().FindByID(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, storefront.CheckoutStatusCompleted, done.Status)
	assert.Equal(t, &sale.ID, done.SaleID)

	t.Run("redelivery of the same event", func(t *testing.T) {
		again, err := f.svc.HandleStripe(ctx, []byte(`{}`), "valid")
		require.NoError(t, err)
		assert.True(t, again.Duplicate)
		assert.Nil(t, again.SaleID)
	})

	t.Run("second event for the same session", func(t *testing.T) {
		f.stripe.event = f.paidSession("evt_2", "cs_1", checkout.ID)
		f.stripe.event.Type = "checkout.session.async_payment_succeeded"
		again, err := f.svc.HandleStripe(ctx, []byte(`{}`), "valid")
		require.NoError(t, err)
		assert.True(t, again.Duplicate)
		assert.Equal(t, &sale.ID, again.SaleID)
		assert.Equal(t, 3, f.stock(t, f.product.ID))
	})

	assert.Equal(t, []string{"STRIPE:processed", "STRIPE:duplicate", "STRIPE:duplicate"}, f.recorder.outcomes)
}

func TestWebhookService_StripeFallsBackToCheckoutSnapshot(t *testing.T) {
	f := newWebhookFixture(t)
	checkout := f.checkout(t, storefront.ProviderStripe, 1)
	f.stripe.event = f.paidSession("evt_9", "cs_9", checkout.ID)
	f.stripe.lineItems = []payment.ProviderLineItem{{Description: "Mochila", Quantity: 1, UnitAmount: 12000}}

	res, err := f.svc.HandleStripe(context.Background(), nil, "valid")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, res.Outcome)
	assert.Equal(t, 4, f.stock(t, f.product.ID))
}

func TestWebhookService_StripeRejections(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	valid := func() *payment.WebhookEvent { return f.paidSession("evt_x", "cs_x", uuid.Nil) }
	items := []payment.ProviderLineItem{{ProductID: f.product.ID, Quantity: 1, UnitAmount: 12000}}

	tests := []struct {
		name      string
		signature string
		mutate    func(*payment.WebhookEvent)
		items     []payment.ProviderLineItem
		listErr   error
		permanent bool
		want      error
	}{
		{name: "bad signature", signature: "forged", permanent: true, want: payment.ErrInvalidSignature},
		{name: "missing organization", signature: "valid", items: items, permanent: true, want: shared.ErrInvalidInput,
			mutate: func(e *payment.WebhookEvent) { delete(e.Metadata, payment.MetadataOrganizationID) }},
		{name: "unknown organization", signature: "valid", items: items, permanent: true, want: shared.ErrInvalidInput,
			mutate: func(e *payment.WebhookEvent) { e.Metadata[payment.MetadataOrganizationID] = uuid.NewString() }},
		{name: "unknown customer", signature: "valid", items: items, permanent: true, want: shared.ErrInvalidInput,
			mutate: func(e *payment.WebhookEvent) { e.Metadata[payment.MetadataCustomerID] = uuid.NewString() }},
		{name: "foreign line item without snapshot", signature: "valid", items: []payment.ProviderLineItem{{Quantity: 1, UnitAmount: 100}},
			permanent: true, want: shared.ErrInvalidInput},
		{name: "provider outage", signature: "valid", listErr: payment.ErrGatewayRequestFailed, permanent: false, want: payment.ErrGatewayRequestFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := valid()
			if tt.mutate != nil {
				tt.mutate(evt)
			}
			f.stripe.event = evt
			f.stripe.lineItems = tt.items
			f.stripe.listErr = tt.listErr

			_, err := f.svc.HandleStripe(ctx, nil, tt.signature)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, tt.permanent, IsPermanentWebhookError(err))
		})
	}
	assert.Equal(t, 5, f.stock(t, f.product.ID))
}

func TestWebhookService_StripeRecordsDeletedProduct(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	gone := uuid.New()
	f.stripe.event = f.paidSession("evt_d", "cs_d", uuid.Nil)
	f.stripe.lineItems = []payment.ProviderLineItem{
		{ProductID: gone, Description: "Casaco", Quantity: 1, UnitAmount: 9900},
		{ProductID: f.product.ID, Description: "Mochila", Quantity: 1, UnitAmount: 12000},
	}

	res, err := f.svc.HandleStripe(ctx, nil, "valid")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, res.Outcome)

	sale, err := f.repos.Sales().FindByExternalID(ctx, f.org.ID, trade.PaymentProviderStripe, "cs_d")
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	assert.True(t, sale.Total.Equal(testutil.Decimal("219.00")))
	assert.Equal(t, 4, f.stock(t, f.product.ID), "only the surviving product moves stock")
}

func TestWebhookService_StripeIgnoresUnpaidEvents(t *testing.T) {
	f := newWebhookFixture(t)
	f.stripe.event = &payment.WebhookEvent{Provider: storefront.ProviderStripe, EventID: "evt_u", Type: "customer.created"}

	res, err := f.svc.HandleStripe(context.Background(), nil, "valid")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookIgnored, res.Outcome)
	assert.Nil(t, res.SaleID)
}

func TestWebhookService_Asaas(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	checkout := f.checkout(t, storefront.ProviderAsaas, 1)
	f.asaas.event = &payment.WebhookEvent{
		Provider:          storefront.ProviderAsaas,
		EventID:           "evt_a1",
		Type:              "PAYMENT_RECEIVED",
		Paid:              true,
		ProviderRef:       "pay_1",
		ExternalReference: checkout.ID.String(),
		Amount:            testutil.Decimal("120.00"),
	}

	_, err := f.svc.HandleAsaas(ctx, nil, "wrong")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))

	res, err := f.svc.HandleAsaas(ctx, nil, "asaas-token")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, res.Outcome)
	assert.Equal(t, 4, f.stock(t, f.product.ID))

	sale, err := f.repos.Sales().FindByExternalID(ctx, f.org.ID, trade.PaymentProviderAsaas, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, trade.PaymentMethodAsaas, sale.PaymentMethod)

	dup, err := f.svc.HandleAsaas(ctx, nil, "asaas-token")
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)

	t.Run("underpaid", func(t *testing.T) {
		c := f.checkout(t, storefront.ProviderAsaas, 2)
		f.asaas.event = &payment.WebhookEvent{
			Provider: storefront.ProviderAsaas, EventID: "evt_a2", Type: "PAYMENT_CONFIRMED", Paid: true,
			ProviderRef: "pay_2", ExternalReference: c.ID.String(), Amount: testutil.Decimal("100.00"),
		}
		_, err := f.svc.HandleAsaas(ctx, nil, "asaas-token")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("unknown checkout", func(t *testing.T) {
		f.asaas.event = &payment.WebhookEvent{
			Provider: storefront.ProviderAsaas, EventID: "evt_a3", Type: "PAYMENT_RECEIVED", Paid: true,
			ProviderRef: "pay_3", ExternalReference: uuid.NewString(),
		}
		_, err := f.svc.HandleAsaas(ctx, nil, "asaas-token")
		assert.True(t, IsPermanentWebhookError(err))
	})

	t.Run("malformed payload", func(t *testing.T) {
		f.asaas.event = nil
		_, err := f.svc.HandleAsaas(ctx, nil, "asaas-token")
		assert.True(t, errors.Is(err, payment.ErrInvalidPayload))
	})
}

func TestSaleLinesFromProvider(t *testing.T) {
	id := uuid.New()
	lines, err := SaleLinesFromProvider([]payment.ProviderLineItem{
		{ProductID: id, Description: "Caneca", Quantity: 3, UnitAmount: 1999},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, id, lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(testutil.Decimal("19.99")))
	assert.True(t, trade.Subtotal(lines).Equal(testutil.Decimal("59.97")))

	_, err = SaleLinesFromProvider(nil)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	_, err = SaleLinesFromProvider([]payment.ProviderLineItem{{ProductID: id, Quantity: 0}})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
