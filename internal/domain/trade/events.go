package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storehub/backend/internal/domain/shared"
)

const AggregateTypeSale = "Sale"

const (
	EventTypeSaleCreated   = "SaleCreated"
	EventTypeSaleCancelled = "SaleCancelled"
)

// SaleCreatedEvent is published after a sale is persisted
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID          uuid.UUID       `json:"sale_id"`
	Number          int64           `json:"number"`
	Source          SaleSource      `json:"source"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentProvider PaymentProvider `json:"payment_provider,omitempty"`
	Total           decimal.Decimal `json:"total"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.OrganizationID),
		SaleID:          s.ID,
		Number:          s.Number,
		Source:          s.Source,
		PaymentMethod:   s.PaymentMethod,
		PaymentProvider: s.PaymentProvider,
		Total:           s.Total,
	}
}

// SaleCancelledEvent is published when a sale is voided
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID       `json:"sale_id"`
	Number int64           `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.OrganizationID),
		SaleID:          s.ID,
		Number:          s.Number,
		Total:           s.Total,
	}
}
