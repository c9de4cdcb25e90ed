package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeIn         MovementType = "IN"
	MovementTypeOut        MovementType = "OUT"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// IsValid reports whether t is a known movement type
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	default:
		return false
	}
}

// Standard movement reasons written by the system
const (
	ReasonSale           = "sale"
	ReasonSaleCancelled  = "sale_cancelled"
	ReasonInitialBalance = "initial_balance"
)

// StockMovement is an immutable ledger row describing one change to a product's stock
type StockMovement struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type           MovementType `gorm:"type:varchar(20);not null"`
	// Quantity is always positive; for ADJUSTMENT it is the new absolute balance
	Quantity     int        `gorm:"not null"`
	BalanceAfter int        `gorm:"not null"`
	Reason       string     `gorm:"type:varchar(100)"`
	Notes        string     `gorm:"type:text"`
	SaleID       *uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement validates and builds a movement. BalanceAfter is filled by ApplyTo.
func NewStockMovement(organizationID, productID uuid.UUID, t MovementType, quantity int, reason string) (*StockMovement, error) {
	if organizationID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization and product are required")
	}
	if !t.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Invalid movement type %q", t)
	}
	if t == MovementTypeAdjustment {
		if quantity < 0 {
			return nil, shared.ErrInvalidInput.WithMessage("Adjusted balance cannot be negative")
		}
	} else if quantity <= 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}
	return &StockMovement{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		ProductID:      productID,
		Type:           t,
		Quantity:       quantity,
		Reason:         strings.TrimSpace(reason),
		CreatedAt:      time.Now(),
	}, nil
}

// StockAdjustable is the part of a product a movement acts on
type StockAdjustable interface {
	ApplyStockDelta(delta int) error
	SetStockBalance(balance int) error
	CurrentStock() int
}

// ApplyTo changes target's balance and records the resulting balance
func (m *StockMovement) ApplyTo(target StockAdjustable) error {
	var err error
	switch m.Type {
	case MovementTypeIn:
		err = target.ApplyStockDelta(m.Quantity)
	case MovementTypeOut:
		err = target.ApplyStockDelta(-m.Quantity)
	case MovementTypeAdjustment:
		err = target.SetStockBalance(m.Quantity)
	}
	if err != nil {
		return err
	}
	m.BalanceAfter = target.CurrentStock()
	return nil
}

// ForSale links the movement to the sale that caused it
func (m *StockMovement) ForSale(saleID uuid.UUID) *StockMovement {
	m.SaleID = &saleID
	return m
}

// By records who performed the movement
func (m *StockMovement) By(userID *uuid.UUID) *StockMovement {
	m.CreatedBy = userID
	return m
}
