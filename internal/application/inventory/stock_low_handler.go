package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/shared"
)

// Alert types
const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"
)

// StockAlert describes a product that crossed its minimum stock
type StockAlert struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Stock          int       `json:"stock"`
	MinStock       int       `json:"min_stock"`
	AlertType      string    `json:"alert_type"`
}

// StockAlertNotifier delivers stock alerts
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// LowStockCounter counts low-stock products of one organization
type LowStockCounter interface {
	CountLowStock(ctx context.Context, organizationID uuid.UUID) (int64, error)
}

// LowStockRecorder receives the refreshed count, e.g. a metrics gauge
type LowStockRecorder interface {
	RecordLowStock(organizationID uuid.UUID, count int64)
}

// StockLowHandler reacts to ProductStockLow events: it notifies and
// refreshes the organization's low-stock gauge without waiting for the
// scheduled job.
type StockLowHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
	counter  LowStockCounter
	recorder LowStockRecorder
}

// NewStockLowHandler creates the handler
func NewStockLowHandler(logger *zap.Logger) *StockLowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLowHandler{logger: logger}
}

// WithNotifier sets the alert notifier
func (h *StockLowHandler) WithNotifier(notifier StockAlertNotifier) *StockLowHandler {
	h.notifier = notifier
	return h
}

// WithGauge sets where the refreshed low-stock count goes
func (h *StockLowHandler) WithGauge(counter LowStockCounter, recorder LowStockRecorder) *StockLowHandler {
	h.counter = counter
	h.recorder = recorder
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockLowHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductStockLow}
}

// Handle processes a ProductStockLowEvent
func (h *StockLowHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	low, ok := event.(*catalog.ProductStockLowEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", catalog.EventTypeProductStockLow, event.EventType())
	}

	alert := StockAlert{
		OrganizationID: low.TenantID(),
		ProductID:      low.ProductID,
		Stock:          low.Stock,
		MinStock:       low.MinStock,
		AlertType:      AlertLowStock,
	}
	if low.Stock == 0 {
		alert.AlertType = AlertOutOfStock
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// notification failure does not fail the event
			h.logger.Error("Failed to send stock alert",
				zap.String("product_id", alert.ProductID.String()),
				zap.Error(err))
		}
	}

	if h.counter != nil && h.recorder != nil {
		count, err := h.counter.CountLowStock(ctx, alert.OrganizationID)
		if err != nil {
			return fmt.Errorf("count low stock: %w", err)
		}
		h.recorder.RecordLowStock(alert.OrganizationID, count)
	}
	return nil
}

var _ shared.EventHandler = (*StockLowHandler)(nil)

// LoggingStockAlertNotifier writes alerts to the log
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("Stock alert",
		zap.String("type", alert.AlertType),
		zap.String("organization_id", alert.OrganizationID.String()),
		zap.String("product_id", alert.ProductID.String()),
		zap.Int("stock", alert.Stock),
		zap.Int("min_stock", alert.MinStock))
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
