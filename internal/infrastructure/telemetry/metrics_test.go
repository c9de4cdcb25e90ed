package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, key attribute.Key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(key); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := NewBusinessMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, bm)
}

func TestBusinessMetrics_SalesAndWebhooks(t *testing.T) {
	mp, reader := newTestMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)
	defer bm.Close()

	ctx := context.Background()
	org := uuid.New()
	bm.SaleCreated(ctx, org, SaleSourceStorefront, decimal.RequireFromString("19.99"))
	bm.SaleCreated(ctx, org, SaleSourceAdmin, decimal.RequireFromString("5.005"))
	bm.SaleCancelled(ctx, org)
	bm.CheckoutStarted(ctx, "stripe", nil)
	bm.WebhookHandled(ctx, "stripe", WebhookProcessed)
	bm.WebhookHandled(ctx, "stripe", WebhookDuplicate)
	bm.WebhookHandled(ctx, "asaas", WebhookProcessed)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, metrics["storehub_sale_created_total"], AttrOrganizationID, org.String()))
	assert.Equal(t, int64(1999+501), sumFor(t, metrics["storehub_sale_revenue_cents_total"], AttrOrganizationID, org.String()))
	assert.Equal(t, int64(1), sumFor(t, metrics["storehub_sale_cancelled_total"], AttrOrganizationID, org.String()))
	assert.Equal(t, int64(1), sumFor(t, metrics["storehub_checkout_total"], AttrOutcome, "created"))
	assert.Equal(t, int64(2), sumFor(t, metrics["storehub_webhook_total"], AttrOutcome, WebhookProcessed))
	assert.Equal(t, int64(1), sumFor(t, metrics["storehub_webhook_total"], AttrOutcome, WebhookDuplicate))
}

func TestBusinessMetrics_LowStockGauge(t *testing.T) {
	mp, reader := newTestMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)
	defer bm.Close()

	a, b := uuid.New(), uuid.New()
	bm.RecordLowStock(a, 3)
	bm.RecordLowStock(b, 1)
	bm.RecordLowStock(b, 0)

	n, ok := bm.LowStock(b)
	assert.True(t, ok)
	assert.Zero(t, n)

	gauge, ok := collect(t, reader)["storehub_low_stock_products"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	got := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(AttrOrganizationID)
		got[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{a.String(): 3, b.String(): 0}, got)
}

func TestBusinessMetrics_NilReceiver(t *testing.T) {
	var bm *BusinessMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		bm.SaleCreated(ctx, uuid.New(), SaleSourceAdmin, decimal.NewFromInt(1))
		bm.CheckoutStarted(ctx, "asaas", assert.AnError)
		bm.WebhookHandled(ctx, "asaas", WebhookFailed)
		bm.RecordLowStock(uuid.New(), 1)
	})
	assert.NoError(t, bm.Close())
}
