package catalog

import (
	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated  = "ProductCreated"
	EventTypeProductStockLow = "ProductStockLow"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.OrganizationID),
		ProductID:       p.ID,
		Name:            p.Name,
	}
}

// ProductStockLowEvent is published when an outbound movement leaves stock at or under MinStock
type ProductStockLowEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
}

// NewProductStockLowEvent creates a new ProductStockLowEvent
func NewProductStockLowEvent(p *Product) *ProductStockLowEvent {
	return &ProductStockLowEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockLow, AggregateTypeProduct, p.ID, p.OrganizationID),
		ProductID:       p.ID,
		Stock:           p.Stock,
		MinStock:        p.MinStock,
	}
}
