package storefront

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/storehub/backend/internal/domain/shared"
)

// Checkout providers
const (
	ProviderStripe = "STRIPE"
	ProviderAsaas  = "ASAAS"
)

// CheckoutStatus is the state of a storefront checkout
type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "PENDING"
	CheckoutStatusCompleted CheckoutStatus = "COMPLETED"
	CheckoutStatusExpired   CheckoutStatus = "EXPIRED"
)

// DefaultCheckoutTTL is how long a checkout waits for payment
const DefaultCheckoutTTL = 24 * time.Hour

// CheckoutItem is the price snapshot of one cart line
type CheckoutItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Checkout records a cart handed to a payment provider. Webhooks use it to
// recover the items when the provider payload does not carry them.
type Checkout struct {
	shared.BaseEntity
	OrganizationID uuid.UUID                         `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID                         `gorm:"type:uuid;not null;index"`
	CatalogUserID  *uuid.UUID                        `gorm:"type:uuid"`
	Provider       string                            `gorm:"type:varchar(20);not null"`
	ProviderRef    string                            `gorm:"type:varchar(255);index"`
	Status         CheckoutStatus                    `gorm:"type:varchar(20);not null;index"`
	Items          datatypes.JSONSlice[CheckoutItem] `gorm:"type:jsonb;not null"`
	Total          decimal.Decimal                   `gorm:"type:decimal(18,2);not null"`
	CheckoutURL    string                            `gorm:"type:text"`
	SaleID         *uuid.UUID                        `gorm:"type:uuid"`
	ExpiresAt      time.Time                         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Checkout) TableName() string {
	return "checkouts"
}

// NewCheckout validates the cart and snapshots its total
func NewCheckout(organizationID, customerID uuid.UUID, provider string, items []CheckoutItem, ttl time.Duration) (*Checkout, error) {
	if organizationID == uuid.Nil || customerID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization and customer are required")
	}
	if provider != ProviderStripe && provider != ProviderAsaas {
		return nil, shared.ErrInvalidInput.WithMessage("Unsupported payment provider %q", provider)
	}
	if len(items) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Cart is empty")
	}
	total := decimal.Zero
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, shared.ErrInvalidInput.WithMessage("Item %d quantity must be positive", i+1)
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !total.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("Checkout total must be positive")
	}
	if ttl <= 0 {
		ttl = DefaultCheckoutTTL
	}
	base := shared.NewBaseEntity()
	return &Checkout{
		BaseEntity:     base,
		OrganizationID: organizationID,
		CustomerID:     customerID,
		Provider:       provider,
		Status:         CheckoutStatusPending,
		Items:          datatypes.JSONSlice[CheckoutItem](items),
		Total:          total,
		ExpiresAt:      base.CreatedAt.Add(ttl),
	}, nil
}

// AttachProvider records the provider-side reference and payment URL
func (c *Checkout) AttachProvider(ref, url string) {
	c.ProviderRef = ref
	c.CheckoutURL = url
	c.Touch()
}

// Complete links the checkout to the sale it produced
func (c *Checkout) Complete(saleID uuid.UUID) error {
	if c.Status == CheckoutStatusCompleted {
		if c.SaleID != nil && *c.SaleID == saleID {
			return nil
		}
		return shared.ErrInvalidState.WithMessage("Checkout already completed")
	}
	c.Status = CheckoutStatusCompleted
	c.SaleID = &saleID
	c.Touch()
	return nil
}

// Expire marks an unpaid checkout as expired
func (c *Checkout) Expire() error {
	if c.Status != CheckoutStatusPending {
		return shared.ErrInvalidState.WithMessage("Only pending checkouts can expire")
	}
	c.Status = CheckoutStatusExpired
	c.Touch()
	return nil
}

// IsExpired reports whether the checkout passed its deadline at now
func (c *Checkout) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
