package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/shared"
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// IsValid reports whether s is a known status
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentMethod is how the buyer paid
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodPix    PaymentMethod = "PIX"
	PaymentMethodBoleto PaymentMethod = "BOLETO"
	PaymentMethodStripe PaymentMethod = "STRIPE"
	PaymentMethodAsaas  PaymentMethod = "ASAAS"
	PaymentMethodOther  PaymentMethod = "OTHER"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPix, PaymentMethodBoleto,
		PaymentMethodStripe, PaymentMethodAsaas, PaymentMethodOther:
		return true
	default:
		return false
	}
}

// SaleSource tells where a sale originated
type SaleSource string

const (
	SaleSourceAdmin   SaleSource = "ADMIN"
	SaleSourceCatalog SaleSource = "CATALOG"
)

// PaymentProvider identifies the gateway that confirmed an external sale
type PaymentProvider string

const (
	PaymentProviderNone   PaymentProvider = ""
	PaymentProviderStripe PaymentProvider = "STRIPE"
	PaymentProviderAsaas  PaymentProvider = "ASAAS"
)

// Sale is a sales record. Its number is unique and gapless per organization
// and is assigned by the repository inside the insert transaction.
type Sale struct {
	shared.TenantAggregateRoot
	Number          int64           `gorm:"not null;index"`
	CustomerID      *uuid.UUID      `gorm:"type:uuid;index"`
	Status          SaleStatus      `gorm:"type:varchar(20);not null"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null"`
	Source          SaleSource      `gorm:"type:varchar(20);not null"`
	PaymentProvider PaymentProvider `gorm:"type:varchar(20);not null;default:''"`
	ExternalID      string          `gorm:"type:varchar(255);not null;default:'';index"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Discount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Notes           string          `gorm:"type:text"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid"`
	CompletedAt     *time.Time
	CancelledAt     *time.Time

	Items    []SaleItem        `gorm:"foreignKey:SaleID"`
	Customer *partner.Customer `gorm:"foreignKey:CustomerID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one line of a sale. Product name and price are snapshots.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// SaleLine is the input for one sale item
type SaleLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Total returns quantity x unit price
func (l SaleLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the totals of lines
func Subtotal(lines []SaleLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// SaleOptions carries the optional attributes of a new sale
type SaleOptions struct {
	CustomerID      *uuid.UUID
	PaymentMethod   PaymentMethod
	Source          SaleSource
	PaymentProvider PaymentProvider
	ExternalID      string
	Discount        decimal.Decimal
	Notes           string
	CreatedBy       *uuid.UUID
	// Pending leaves the sale awaiting payment instead of completing it
	Pending bool
}

// NewSale validates lines and builds a sale with computed totals
func NewSale(organizationID uuid.UUID, lines []SaleLine, opts SaleOptions) (*Sale, error) {
	if organizationID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization is required")
	}
	if len(lines) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("A sale needs at least one item")
	}
	if opts.PaymentMethod == "" {
		opts.PaymentMethod = PaymentMethodCash
	}
	if !opts.PaymentMethod.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Invalid payment method %q", opts.PaymentMethod)
	}
	if opts.Source == "" {
		opts.Source = SaleSourceAdmin
	}
	if opts.PaymentProvider != PaymentProviderNone && opts.ExternalID == "" {
		return nil, shared.ErrInvalidInput.WithMessage("External sales need an external id")
	}
	if opts.Discount.IsNegative() {
		return nil, shared.ErrInvalidInput.WithMessage("Discount cannot be negative")
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(organizationID),
		CustomerID:          opts.CustomerID,
		Status:              SaleStatusCompleted,
		PaymentMethod:       opts.PaymentMethod,
		Source:              opts.Source,
		PaymentProvider:     opts.PaymentProvider,
		ExternalID:          opts.ExternalID,
		Discount:            opts.Discount,
		Notes:               strings.TrimSpace(opts.Notes),
		CreatedBy:           opts.CreatedBy,
		Items:               make([]SaleItem, 0, len(lines)),
	}

	for i, l := range lines {
		if l.ProductID == uuid.Nil {
			return nil, shared.ErrInvalidInput.WithMessage("Item %d has no product", i+1)
		}
		if l.Quantity <= 0 {
			return nil, shared.ErrInvalidInput.WithMessage("Item %d quantity must be positive", i+1)
		}
		if l.UnitPrice.IsNegative() {
			return nil, shared.ErrInvalidInput.WithMessage("Item %d unit price cannot be negative", i+1)
		}
		sale.Items = append(sale.Items, SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total(),
		})
	}

	sale.Subtotal = Subtotal(lines)
	if sale.Discount.GreaterThan(sale.Subtotal) {
		return nil, shared.ErrInvalidInput.WithMessage("Discount cannot exceed the subtotal")
	}
	sale.Total = sale.Subtotal.Sub(sale.Discount)

	if opts.Pending {
		sale.Status = SaleStatusPending
	} else {
		now := time.Now()
		sale.CompletedAt = &now
	}
	return sale, nil
}

// AssignNumber sets the sequential number and records the creation event
func (s *Sale) AssignNumber(n int64) {
	s.Number = n
	s.AddDomainEvent(NewSaleCreatedEvent(s))
}

// Complete marks a pending sale as paid
func (s *Sale) Complete() error {
	if s.Status != SaleStatusPending {
		return shared.ErrInvalidState.WithMessage("Only pending sales can be completed")
	}
	now := time.Now()
	s.Status = SaleStatusCompleted
	s.CompletedAt = &now
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Cancel voids the sale. Stock restoration is the caller's job.
func (s *Sale) Cancel() error {
	if s.Status == SaleStatusCancelled {
		return shared.ErrInvalidState.WithMessage("Sale is already cancelled")
	}
	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return nil
}

// IsExternal reports whether a payment provider confirmed the sale
func (s *Sale) IsExternal() bool {
	return s.PaymentProvider != PaymentProviderNone
}

// ItemCount returns the number of units sold
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}
