// Package payment defines the provider-neutral contracts used for storefront
// checkout and webhook reconciliation.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrGatewayNotConfigured = errors.New("payment: gateway not configured")
	ErrGatewayRequestFailed = errors.New("payment: gateway request failed")
	ErrInvalidSignature     = errors.New("payment: invalid webhook signature")
	ErrInvalidPayload       = errors.New("payment: invalid webhook payload")
)

// CheckoutLine is one priced line sent to a provider
type CheckoutLine struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Buyer describes the paying customer
type Buyer struct {
	CustomerID uuid.UUID
	Name       string
	Email      string
	Phone      string
	Document   string
	// GatewayCustomerID is a provider-side customer id already linked to the buyer
	GatewayCustomerID string
}

// CreateCheckoutRequest asks a provider for a hosted payment page
type CreateCheckoutRequest struct {
	CheckoutID     uuid.UUID
	OrganizationID uuid.UUID
	StoreName      string
	Buyer          Buyer
	Lines          []CheckoutLine
	Total          decimal.Decimal
	SuccessURL     string
	CancelURL      string
}

// CreateCheckoutResponse is the provider's answer
type CreateCheckoutResponse struct {
	// ProviderRef is the provider object id (Stripe session id, Asaas payment id)
	ProviderRef string
	URL         string
	// GatewayCustomerID is set when the provider created a customer for the buyer
	GatewayCustomerID string
}

// CheckoutGateway creates hosted checkouts at a provider
type CheckoutGateway interface {
	Provider() string
	CreateCheckout(ctx context.Context, req CreateCheckoutRequest) (*CreateCheckoutResponse, error)
}

// ProviderLineItem is a line item as reported back by a provider
type ProviderLineItem struct {
	// ProductID is read from provider metadata; Nil when the provider line is not one of ours
	ProductID   uuid.UUID
	Description string
	Quantity    int64
	// UnitAmount is in minor units (cents)
	UnitAmount int64
	Currency   string
}

// LineItemSource lists the line items of a completed provider checkout
type LineItemSource interface {
	ListLineItems(ctx context.Context, sessionID string) ([]ProviderLineItem, error)
}

// FromMinorUnits converts cents to a decimal amount
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// ToMinorUnits converts a decimal amount to cents, rounding half away from zero
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// WebhookEvent is a verified provider notification reduced to what
// reconciliation needs
type WebhookEvent struct {
	Provider string
	// EventID is the provider's delivery id, used to deduplicate redeliveries
	EventID string
	Type    string
	// Paid is true when the event confirms that money was received
	Paid bool
	// ProviderRef is the Stripe session id or the Asaas payment id
	ProviderRef string
	// ExternalReference carries our checkout id when the provider echoes it
	ExternalReference string
	Metadata          map[string]string
	// Amount is the total the provider charged, zero when unknown
	Amount            decimal.Decimal
	GatewayCustomerID string
}

// DedupKey returns the idempotency key for the event
func (e WebhookEvent) DedupKey() string {
	if e.EventID != "" {
		return e.Provider + ":" + e.EventID
	}
	return e.Provider + ":" + e.ProviderRef + ":" + e.Type
}

// Metadata keys attached to provider objects
const (
	MetadataOrganizationID = "organization_id"
	MetadataCustomerID     = "customer_id"
	MetadataCheckoutID     = "checkout_id"
	MetadataProductID      = "product_id"
)
