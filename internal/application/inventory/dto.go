package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/shared"
)

// RecordMovementRequest moves stock of one product. For ADJUSTMENT the
// quantity is the new absolute balance.
type RecordMovementRequest struct {
	ProductID uuid.UUID              `json:"product_id" binding:"required"`
	Type      inventory.MovementType `json:"type" binding:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity  int                    `json:"quantity" binding:"min=0"`
	Reason    string                 `json:"reason" binding:"max=100"`
	CreatedBy *uuid.UUID             `json:"-"`
}

// MovementListFilter narrows the stock ledger
type MovementListFilter struct {
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	SaleID    string `form:"sale_id" binding:"omitempty,uuid"`
	Type      string `form:"type" binding:"omitempty,oneof=IN OUT ADJUSTMENT"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (f MovementListFilter) toDomain() inventory.MovementFilter {
	filter := inventory.MovementFilter{Filter: shared.DefaultFilter(), Type: inventory.MovementType(f.Type)}
	filter.OrderBy = "created_at"
	filter.OrderDir = "desc"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if id, err := uuid.Parse(f.ProductID); err == nil {
		filter.ProductID = &id
	}
	if id, err := uuid.Parse(f.SaleID); err == nil {
		filter.SaleID = &id
	}
	filter.Normalize()
	return filter
}

// MovementResponse is one ledger entry
type MovementResponse struct {
	ID           uuid.UUID              `json:"id"`
	ProductID    uuid.UUID              `json:"product_id"`
	Type         inventory.MovementType `json:"type"`
	Quantity     int                    `json:"quantity"`
	BalanceAfter int                    `json:"balance_after"`
	Reason       string                 `json:"reason"`
	SaleID       *uuid.UUID             `json:"sale_id,omitempty"`
	CreatedBy    *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ToMovementResponse converts a domain movement
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		Type:         m.Type,
		Quantity:     m.Quantity,
		BalanceAfter: m.BalanceAfter,
		Reason:       m.Reason,
		SaleID:       m.SaleID,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

// LowStockItem is a product at or under its minimum stock
type LowStockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
	Shortage  int       `json:"shortage"`
}
