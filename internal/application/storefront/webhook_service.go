package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apptrade "github.com/storehub/backend/internal/application/trade"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/telemetry"
)

// DefaultDedupTTL is how long a processed webhook event id is remembered
const DefaultDedupTTL = 7 * 24 * time.Hour

// StripeWebhookGateway verifies Stripe deliveries and lists session line items
type StripeWebhookGateway interface {
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
	payment.LineItemSource
}

// AsaasWebhookGateway verifies and decodes Asaas deliveries
type AsaasWebhookGateway interface {
	VerifyWebhookToken(token string) bool
	ParseWebhook(payload []byte) (*payment.WebhookEvent, error)
}

// ExternalSaleRecorder records provider-confirmed sales; satisfied by the trade SaleService
type ExternalSaleRecorder interface {
	RecordExternalSale(ctx context.Context, in apptrade.ExternalSaleInput) (*trade.Sale, bool, error)
}

// WebhookRecorder counts deliveries; satisfied by telemetry.BusinessMetrics
type WebhookRecorder interface {
	WebhookHandled(ctx context.Context, provider, outcome string)
}

// WebhookDeps groups the collaborators of WebhookService
type WebhookDeps struct {
	Organizations identity.OrganizationRepository
	Customers     partner.CustomerRepository
	Checkouts     storefront.CheckoutRepository
	Sales         ExternalSaleRecorder
	Stripe        StripeWebhookGateway
	Asaas         AsaasWebhookGateway
	Idempotency   shared.IdempotencyStore
	Metrics       WebhookRecorder
	DedupTTL      time.Duration
	Logger        *zap.Logger
}

// WebhookService turns confirmed provider payments into sales.
//
// Errors wrapping shared.ErrInvalidInput, shared.ErrNotFound or the payment
// signature/payload errors mean the delivery is unusable and must not be
// retried; shared.ErrUnauthorized means a bad Asaas token. Anything else is a
// processing failure the provider should retry.
type WebhookService struct {
	orgs        identity.OrganizationRepository
	customers   partner.CustomerRepository
	checkouts   storefront.CheckoutRepository
	sales       ExternalSaleRecorder
	stripe      StripeWebhookGateway
	asaas       AsaasWebhookGateway
	idempotency shared.IdempotencyStore
	metrics     WebhookRecorder
	dedupTTL    time.Duration
	logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService. A nil gateway disables its endpoint.
func NewWebhookService(deps WebhookDeps) *WebhookService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.DedupTTL <= 0 {
		deps.DedupTTL = DefaultDedupTTL
	}
	return &WebhookService{
		orgs:        deps.Organizations,
		customers:   deps.Customers,
		checkouts:   deps.Checkouts,
		sales:       deps.Sales,
		stripe:      deps.Stripe,
		asaas:       deps.Asaas,
		idempotency: deps.Idempotency,
		metrics:     deps.Metrics,
		dedupTTL:    deps.DedupTTL,
		logger:      deps.Logger,
	}
}

// HandleStripe processes a Stripe delivery. Only paid checkout sessions
// produce sales; other events are acknowledged and ignored.
func (s *WebhookService) HandleStripe(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.stripe == nil {
		return nil, s.reject(ctx, storefront.ProviderStripe, shared.ErrNotFound.WithMessage("Stripe is not configured"))
	}
	evt, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		return nil, s.reject(ctx, storefront.ProviderStripe, err)
	}
	return s.process(ctx, evt, s.reconcileStripe)
}

// HandleAsaas processes an Asaas delivery authenticated by its access token
func (s *WebhookService) HandleAsaas(ctx context.Context, payload []byte, token string) (*WebhookResult, error) {
	if s.asaas == nil {
		return nil, s.reject(ctx, storefront.ProviderAsaas, shared.ErrNotFound.WithMessage("Asaas is not configured"))
	}
	if !s.asaas.VerifyWebhookToken(token) {
		return nil, s.reject(ctx, storefront.ProviderAsaas, shared.ErrUnauthorized.WithMessage("Invalid webhook token"))
	}
	evt, err := s.asaas.ParseWebhook(payload)
	if err != nil {
		return nil, s.reject(ctx, storefront.ProviderAsaas, err)
	}
	return s.process(ctx, evt, s.reconcileAsaas)
}

type reconcileFunc func(ctx context.Context, evt *payment.WebhookEvent) (*trade.Sale, bool, error)

func (s *WebhookService) process(ctx context.Context, evt *payment.WebhookEvent, reconcile reconcileFunc) (*WebhookResult, error) {
	result := &WebhookResult{Provider: evt.Provider, EventID: evt.EventID, EventType: evt.Type}
	log := s.logger.With(
		zap.String("provider", evt.Provider),
		zap.String("event_id", evt.EventID),
		zap.String("event_type", evt.Type),
	)

	if !evt.Paid {
		log.Debug("Webhook event ignored")
		result.Outcome = telemetry.WebhookIgnored
		s.count(ctx, evt.Provider, result.Outcome)
		return result, nil
	}

	key := evt.DedupKey()
	if s.idempotency != nil {
		done, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			log.Warn("Idempotency lookup failed, processing anyway", zap.Error(err))
		} else if done {
			log.Info("Duplicate webhook delivery")
			result.Outcome = telemetry.WebhookDuplicate
			result.Duplicate = true
			s.count(ctx, evt.Provider, result.Outcome)
			return result, nil
		}
	}

	sale, created, err := reconcile(ctx, evt)
	if err != nil {
		outcome := telemetry.WebhookFailed
		if IsPermanentWebhookError(err) {
			outcome = telemetry.WebhookRejected
			log.Warn("Webhook rejected", zap.Error(err))
		} else {
			log.Error("Webhook processing failed", zap.Error(err))
		}
		s.count(ctx, evt.Provider, outcome)
		return nil, err
	}

	if s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.dedupTTL); err != nil {
			log.Warn("Failed to mark webhook processed", zap.Error(err))
		}
	}
	result.Outcome = telemetry.WebhookProcessed
	if !created {
		// the sale exists already; the idempotency store missed this redelivery
		result.Outcome = telemetry.WebhookDuplicate
		result.Duplicate = true
	}
	result.SaleID = &sale.ID
	result.SaleNumber = sale.Number
	s.count(ctx, evt.Provider, result.Outcome)
	log.Info("Webhook processed",
		zap.String("organization_id", sale.OrganizationID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int64("sale_number", sale.Number))
	return result, nil
}

func (s *WebhookService) reconcileStripe(ctx context.Context, evt *payment.WebhookEvent) (*trade.Sale, bool, error) {
	orgID, err := metadataUUID(evt.Metadata, payment.MetadataOrganizationID)
	if err != nil {
		return nil, false, err
	}
	customerID, err := metadataUUID(evt.Metadata, payment.MetadataCustomerID)
	if err != nil {
		return nil, false, err
	}
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, false, err
	}
	if _, err := s.customers.FindByIDForTenant(ctx, orgID, customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, shared.ErrInvalidInput.WithMessage("Customer %s not found", customerID)
		}
		return nil, false, err
	}

	checkout, err := s.optionalCheckout(ctx, orgID, evt)
	if err != nil {
		return nil, false, err
	}

	items, err := s.stripe.ListLineItems(ctx, evt.ProviderRef)
	if err != nil {
		return nil, false, err
	}
	lines, err := SaleLinesFromProvider(items)
	if err != nil {
		if checkout == nil {
			return nil, false, err
		}
		s.logger.Warn("Provider line items unusable, using checkout snapshot",
			zap.String("session_id", evt.ProviderRef), zap.Error(err))
		lines = SaleLinesFromCheckout(checkout)
	}
	if subtotal := trade.Subtotal(lines); evt.Amount.IsPositive() && !subtotal.Equal(evt.Amount) {
		s.logger.Warn("Stripe amount differs from line subtotal",
			zap.String("session_id", evt.ProviderRef),
			zap.String("amount", evt.Amount.String()),
			zap.String("subtotal", subtotal.String()))
	}

	sale, created, err := s.sales.RecordExternalSale(ctx, apptrade.ExternalSaleInput{
		OrganizationID: orgID,
		CustomerID:     &customerID,
		Provider:       trade.PaymentProviderStripe,
		ExternalID:     evt.ProviderRef,
		PaymentMethod:  trade.PaymentMethodStripe,
		Lines:          lines,
		Notes:          "Stripe checkout " + evt.ProviderRef,
	})
	if err != nil {
		return nil, false, err
	}
	if err := s.completeCheckout(ctx, checkout, sale); err != nil {
		return nil, false, err
	}
	return sale, created, nil
}

func (s *WebhookService) reconcileAsaas(ctx context.Context, evt *payment.WebhookEvent) (*trade.Sale, bool, error) {
	checkoutID, err := uuid.Parse(evt.ExternalReference)
	if err != nil {
		return nil, false, shared.ErrInvalidInput.WithMessage("Payment %s has no checkout reference", evt.ProviderRef)
	}
	checkout, err := s.checkouts.FindByID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, shared.ErrInvalidInput.WithMessage("Checkout %s not found", checkoutID)
		}
		return nil, false, err
	}
	if checkout.Provider != storefront.ProviderAsaas {
		return nil, false, shared.ErrInvalidInput.WithMessage("Checkout %s was not created for Asaas", checkoutID)
	}
	if err := s.requireOrganization(ctx, checkout.OrganizationID); err != nil {
		return nil, false, err
	}
	if evt.Amount.IsPositive() && evt.Amount.LessThan(checkout.Total) {
		return nil, false, shared.ErrInvalidInput.WithMessage("Paid amount %s does not cover checkout total %s", evt.Amount, checkout.Total)
	}

	customerID := checkout.CustomerID
	sale, created, err := s.sales.RecordExternalSale(ctx, apptrade.ExternalSaleInput{
		OrganizationID: checkout.OrganizationID,
		CustomerID:     &customerID,
		Provider:       trade.PaymentProviderAsaas,
		ExternalID:     evt.ProviderRef,
		PaymentMethod:  trade.PaymentMethodAsaas,
		Lines:          SaleLinesFromCheckout(checkout),
		Notes:          "Asaas payment " + evt.ProviderRef,
	})
	if err != nil {
		return nil, false, err
	}
	if err := s.completeCheckout(ctx, checkout, sale); err != nil {
		return nil, false, err
	}
	return sale, created, nil
}

func (s *WebhookService) requireOrganization(ctx context.Context, id uuid.UUID) error {
	if _, err := s.orgs.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInvalidInput.WithMessage("Organization %s not found", id)
		}
		return err
	}
	return nil
}

// optionalCheckout loads the checkout a Stripe session points at, if any
func (s *WebhookService) optionalCheckout(ctx context.Context, orgID uuid.UUID, evt *payment.WebhookEvent) (*storefront.Checkout, error) {
	ref := evt.Metadata[payment.MetadataCheckoutID]
	if ref == "" {
		ref = evt.ExternalReference
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, nil
	}
	checkout, err := s.checkouts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if checkout.OrganizationID != orgID {
		return nil, shared.ErrInvalidInput.WithMessage("Checkout %s belongs to another organization", id)
	}
	return checkout, nil
}

func (s *WebhookService) completeCheckout(ctx context.Context, checkout *storefront.Checkout, sale *trade.Sale) error {
	if checkout == nil {
		return nil
	}
	if checkout.IsExpired(time.Now()) {
		s.logger.Warn("Payment arrived after checkout deadline",
			zap.String("checkout_id", checkout.ID.String()),
			zap.String("status", string(checkout.Status)),
			zap.Time("expires_at", checkout.ExpiresAt))
	}
	if err := checkout.Complete(sale.ID); err != nil {
		s.logger.Warn("Checkout not completed",
			zap.String("checkout_id", checkout.ID.String()),
			zap.String("sale_id", sale.ID.String()),
			zap.Error(err))
		return nil
	}
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return fmt.Errorf("complete checkout %s: %w", checkout.ID, err)
	}
	return nil
}

func (s *WebhookService) reject(ctx context.Context, provider string, err error) error {
	s.logger.Warn("Webhook delivery rejected", zap.String("provider", provider), zap.Error(err))
	s.count(ctx, provider, telemetry.WebhookRejected)
	return err
}

func (s *WebhookService) count(ctx context.Context, provider, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookHandled(ctx, provider, outcome)
	}
}

// IsPermanentWebhookError reports whether err means the delivery itself is
// bad, so retrying it cannot succeed
func IsPermanentWebhookError(err error) bool {
	return errors.Is(err, shared.ErrInvalidInput) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrUnauthorized) ||
		errors.Is(err, payment.ErrInvalidSignature) ||
		errors.Is(err, payment.ErrInvalidPayload)
}

// SaleLinesFromProvider maps provider line items to sale lines. Every item
// must carry our product id in its metadata.
func SaleLinesFromProvider(items []payment.ProviderLineItem) ([]trade.SaleLine, error) {
	if len(items) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Checkout session has no line items")
	}
	lines := make([]trade.SaleLine, 0, len(items))
	for i, it := range items {
		if it.ProductID == uuid.Nil {
			return nil, shared.ErrInvalidInput.WithMessage("Line item %d (%s) has no product reference", i+1, it.Description)
		}
		if it.Quantity <= 0 {
			return nil, shared.ErrInvalidInput.WithMessage("Line item %d has no quantity", i+1)
		}
		lines = append(lines, trade.SaleLine{
			ProductID:   it.ProductID,
			ProductName: it.Description,
			Quantity:    int(it.Quantity),
			UnitPrice:   payment.FromMinorUnits(it.UnitAmount),
		})
	}
	return lines, nil
}

// SaleLinesFromCheckout rebuilds sale lines from the checkout price snapshot
func SaleLinesFromCheckout(c *storefront.Checkout) []trade.SaleLine {
	lines := make([]trade.SaleLine, len(c.Items))
	for i, it := range c.Items {
		lines[i] = trade.SaleLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return lines
}

func metadataUUID(md map[string]string, key string) (uuid.UUID, error) {
	v, ok := md[key]
	if !ok || v == "" {
		return uuid.Nil, shared.ErrInvalidInput.WithMessage("Missing %s in session metadata", key)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, shared.ErrInvalidInput.WithMessage("Invalid %s in session metadata", key)
	}
	return id, nil
}
