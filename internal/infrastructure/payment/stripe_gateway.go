package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/config"
)

// Stripe event types handled by reconciliation
const (
	StripeEventCheckoutCompleted      = "checkout.session.completed"
	StripeEventAsyncPaymentSucceeded  = "checkout.session.async_payment_succeeded"
	stripeSessionPaymentStatusPaid    = "paid"
	stripeMinCheckoutSessionExpiresIn = 30 * time.Minute
	stripeMaxCheckoutSessionExpiresIn = 24 * time.Hour
)

// StripeGateway creates Checkout Sessions and verifies Stripe webhooks
type StripeGateway struct {
	sessions      session.Client
	webhookSecret string
	currency      string
	sessionTTL    time.Duration
	logger        *zap.Logger
}

// StripeOption configures a StripeGateway
type StripeOption func(*StripeGateway)

// WithStripeBackend replaces the API backend, used by tests
func WithStripeBackend(b stripe.Backend) StripeOption {
	return func(g *StripeGateway) {
		g.sessions.B = b
	}
}

// WithStripeSessionTTL sets how long a hosted session stays open
func WithStripeSessionTTL(ttl time.Duration) StripeOption {
	return func(g *StripeGateway) {
		g.sessionTTL = ttl
	}
}

// NewStripeGateway validates cfg and builds the gateway
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeGateway, error) {
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, fmt.Errorf("stripe: %w: secret key must start with sk_ or rk_", payment.ErrGatewayNotConfigured)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe: %w: webhook secret is required", payment.ErrGatewayNotConfigured)
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "brl"
	}
	g := &StripeGateway{
		sessions:      session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		sessionTTL:    stripeMaxCheckoutSessionExpiresIn,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Provider implements payment.CheckoutGateway
func (g *StripeGateway) Provider() string {
	return storefront.ProviderStripe
}

// CreateCheckout opens a Checkout Session in payment mode. Each line carries
// the product id in its product metadata so the webhook can map it back.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req payment.CreateCheckoutRequest) (*payment.CreateCheckoutResponse, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("stripe: checkout has no lines")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.CheckoutID.String()),
		ExpiresAt:         stripe.Int64(time.Now().Add(clampSessionTTL(g.sessionTTL)).Unix()),
	}
	params.Context = ctx
	if req.Buyer.GatewayCustomerID != "" {
		params.Customer = stripe.String(req.Buyer.GatewayCustomerID)
	} else if req.Buyer.Email != "" {
		params.CustomerEmail = stripe.String(req.Buyer.Email)
	}
	params.AddMetadata(payment.MetadataOrganizationID, req.OrganizationID.String())
	params.AddMetadata(payment.MetadataCustomerID, req.Buyer.CustomerID.String())
	params.AddMetadata(payment.MetadataCheckoutID, req.CheckoutID.String())

	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(line.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(payment.ToMinorUnits(line.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
					Metadata: map[string]string{
						payment.MetadataProductID: line.ProductID.String(),
					},
				},
			},
		})
	}

	s, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe checkout session",
			zap.String("checkout_id", req.CheckoutID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: %w: %v", payment.ErrGatewayRequestFailed, err)
	}

	g.logger.Info("Created Stripe checkout session",
		zap.String("checkout_id", req.CheckoutID.String()),
		zap.String("session_id", s.ID))

	resp := &payment.CreateCheckoutResponse{ProviderRef: s.ID, URL: s.URL}
	if s.Customer != nil {
		resp.GatewayCustomerID = s.Customer.ID
	}
	return resp, nil
}

// ListLineItems implements payment.LineItemSource. Product metadata is
// expanded so that each item can be mapped to a catalog product.
func (g *StripeGateway) ListLineItems(ctx context.Context, sessionID string) ([]payment.ProviderLineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var items []payment.ProviderLineItem
	iter := g.sessions.ListLineItems(params)
	for iter.Next() {
		items = append(items, toProviderLineItem(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: %w: list line items: %v", payment.ErrGatewayRequestFailed, err)
	}
	return items, nil
}

func toProviderLineItem(li *stripe.LineItem) payment.ProviderLineItem {
	item := payment.ProviderLineItem{
		Description: li.Description,
		Quantity:    li.Quantity,
		Currency:    string(li.Currency),
	}
	if li.Quantity > 0 {
		item.UnitAmount = li.AmountSubtotal / li.Quantity
	}
	if li.Price != nil {
		if li.Price.UnitAmount > 0 {
			item.UnitAmount = li.Price.UnitAmount
		}
		if li.Price.Product != nil {
			if id, err := uuid.Parse(li.Price.Product.Metadata[payment.MetadataProductID]); err == nil {
				item.ProductID = id
			}
		}
	}
	return item
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout
// session events. Other event types come back with Paid=false.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("stripe: %w: missing signature", payment.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("stripe: %w: %v", payment.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{
		Provider: storefront.ProviderStripe,
		EventID:  event.ID,
		Type:     string(event.Type),
	}
	if out.Type != StripeEventCheckoutCompleted && out.Type != StripeEventAsyncPaymentSucceeded {
		return out, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("stripe: %w: event has no data", payment.ErrInvalidPayload)
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe: %w: %v", payment.ErrInvalidPayload, err)
	}
	out.Paid = string(s.PaymentStatus) == stripeSessionPaymentStatusPaid
	out.ProviderRef = s.ID
	out.ExternalReference = s.ClientReferenceID
	out.Metadata = s.Metadata
	out.Amount = payment.FromMinorUnits(s.AmountTotal)
	if s.Customer != nil {
		out.GatewayCustomerID = s.Customer.ID
	}
	return out, nil
}

func clampSessionTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl < stripeMinCheckoutSessionExpiresIn:
		return stripeMinCheckoutSessionExpiresIn
	case ttl > stripeMaxCheckoutSessionExpiresIn:
		return stripeMaxCheckoutSessionExpiresIn
	}
	return ttl
}

var (
	_ payment.CheckoutGateway = (*StripeGateway)(nil)
	_ payment.LineItemSource  = (*StripeGateway)(nil)
)
