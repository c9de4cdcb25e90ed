package trade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/telemetry"
)

// SalesRecorder receives sale counters, normally telemetry.BusinessMetrics
type SalesRecorder interface {
	SaleCreated(ctx context.Context, organizationID uuid.UUID, source string, total decimal.Decimal)
	SaleCancelled(ctx context.Context, organizationID uuid.UUID)
}

// SaleMetricsHandler turns sale events into business metrics
type SaleMetricsHandler struct {
	recorder SalesRecorder
}

// NewSaleMetricsHandler creates the handler
func NewSaleMetricsHandler(recorder SalesRecorder) *SaleMetricsHandler {
	return &SaleMetricsHandler{recorder: recorder}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleMetricsHandler) EventTypes() []string {
	return []string{trade.EventTypeSaleCreated, trade.EventTypeSaleCancelled}
}

// Handle records one sale event
func (h *SaleMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.SaleCreatedEvent:
		source := telemetry.SaleSourceAdmin
		if e.Source == trade.SaleSourceCatalog {
			source = telemetry.SaleSourceStorefront
		}
		h.recorder.SaleCreated(ctx, e.TenantID(), source, e.Total)
	case *trade.SaleCancelledEvent:
		h.recorder.SaleCancelled(ctx, e.TenantID())
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*SaleMetricsHandler)(nil)
