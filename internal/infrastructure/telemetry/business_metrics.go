package telemetry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// Sale sources reported on storehub_sale_created_total.
const (
	SaleSourceAdmin      = "admin"
	SaleSourceStorefront = "storefront"
)

// Webhook outcomes reported on storehub_webhook_total.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookRejected  = "rejected"
	WebhookFailed    = "failed"
)

// BusinessMetrics records sales, checkout and webhook activity plus the
// per-organization low-stock gauge. All methods are safe on a nil receiver.
type BusinessMetrics struct {
	salesCreated   *Counter
	revenueCents   *Counter
	salesCancelled *Counter
	checkouts      *Counter
	webhooks       *Counter
	lowStockReg    metric.Registration

	mu       sync.RWMutex
	lowStock map[uuid.UUID]int64
}

// NewBusinessMetrics creates the instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{lowStock: make(map[uuid.UUID]int64)}

	var err error
	if bm.salesCreated, err = NewCounter(meter, "storehub_sale_created_total", "Sales recorded", "{sale}"); err != nil {
		return nil, err
	}
	if bm.revenueCents, err = NewCounter(meter, "storehub_sale_revenue_cents_total", "Revenue of recorded sales in minor units", "{cent}"); err != nil {
		return nil, err
	}
	if bm.salesCancelled, err = NewCounter(meter, "storehub_sale_cancelled_total", "Sales cancelled", "{sale}"); err != nil {
		return nil, err
	}
	if bm.checkouts, err = NewCounter(meter, "storehub_checkout_total", "Storefront checkout attempts", "{checkout}"); err != nil {
		return nil, err
	}
	if bm.webhooks, err = NewCounter(meter, "storehub_webhook_total", "Payment webhook deliveries", "{event}"); err != nil {
		return nil, err
	}

	gauge, err := meter.Int64ObservableGauge("storehub_low_stock_products",
		metric.WithDescription("Active products at or below their minimum stock"),
		metric.WithUnit("{product}"))
	if err != nil {
		return nil, err
	}
	bm.lowStockReg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		bm.mu.RLock()
		defer bm.mu.RUnlock()
		for orgID, n := range bm.lowStock {
			o.ObserveInt64(gauge, n, metric.WithAttributes(AttrOrganizationID.String(orgID.String())))
		}
		return nil
	}, gauge)
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// SaleCreated counts a sale and adds its total to revenue.
func (bm *BusinessMetrics) SaleCreated(ctx context.Context, orgID uuid.UUID, source string, total decimal.Decimal) {
	if bm == nil {
		return
	}
	org := AttrOrganizationID.String(orgID.String())
	bm.salesCreated.Inc(ctx, org, AttrSaleSource.String(source))
	bm.revenueCents.Add(ctx, total.Shift(2).Round(0).IntPart(), org, AttrSaleSource.String(source))
}

// SaleCancelled counts a cancellation.
func (bm *BusinessMetrics) SaleCancelled(ctx context.Context, orgID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.salesCancelled.Inc(ctx, AttrOrganizationID.String(orgID.String()))
}

// CheckoutStarted counts a checkout session request and whether the gateway
// accepted it.
func (bm *BusinessMetrics) CheckoutStarted(ctx context.Context, provider string, err error) {
	if bm == nil {
		return
	}
	outcome := "created"
	if err != nil {
		outcome = "failed"
	}
	bm.checkouts.Inc(ctx, AttrProvider.String(provider), AttrOutcome.String(outcome))
}

// WebhookHandled counts a webhook delivery by provider and outcome.
func (bm *BusinessMetrics) WebhookHandled(ctx context.Context, provider, outcome string) {
	if bm == nil {
		return
	}
	bm.webhooks.Inc(ctx, AttrProvider.String(provider), AttrOutcome.String(outcome))
}

// RecordLowStock sets the gauge value for one organization. Zero counts are
// kept so a recovered organization reports 0 instead of a stale value.
func (bm *BusinessMetrics) RecordLowStock(orgID uuid.UUID, count int64) {
	if bm == nil {
		return
	}
	bm.mu.Lock()
	bm.lowStock[orgID] = count
	bm.mu.Unlock()
}

// LowStock returns the last recorded value for orgID.
func (bm *BusinessMetrics) LowStock(orgID uuid.UUID) (int64, bool) {
	if bm == nil {
		return 0, false
	}
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	n, ok := bm.lowStock[orgID]
	return n, ok
}

// Close unregisters the gauge callback.
func (bm *BusinessMetrics) Close() error {
	if bm == nil || bm.lowStockReg == nil {
		return nil
	}
	return bm.lowStockReg.Unregister()
}
