package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
)

// CheckoutRecorder counts checkout attempts; satisfied by telemetry.BusinessMetrics
type CheckoutRecorder interface {
	CheckoutStarted(ctx context.Context, provider string, err error)
}

// CheckoutOptions tunes checkout creation
type CheckoutOptions struct {
	// ReturnURL is the storefront origin shoppers come back to. "{slug}" is
	// replaced by the store slug, e.g. "https://{slug}.shop.example.com".
	ReturnURL string
	TTL       time.Duration
}

// CheckoutService hands storefront carts to payment providers
type CheckoutService struct {
	loader    storeLoader
	customers partner.CustomerRepository
	products  catalog.ProductRepository
	checkouts storefront.CheckoutRepository
	gateways  Gateways
	metrics   CheckoutRecorder
	opts      CheckoutOptions
	now       func() time.Time
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. metrics may be nil.
func NewCheckoutService(
	orgs identity.OrganizationRepository,
	settings storefront.CatalogSettingsRepository,
	customers partner.CustomerRepository,
	products catalog.ProductRepository,
	checkouts storefront.CheckoutRepository,
	gateways Gateways,
	metrics CheckoutRecorder,
	opts CheckoutOptions,
	logger *zap.Logger,
) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = storefront.DefaultCheckoutTTL
	}
	return &CheckoutService{
		loader:    storeLoader{orgs: orgs, settings: settings},
		customers: customers,
		products:  products,
		checkouts: checkouts,
		gateways:  gateways,
		metrics:   metrics,
		opts:      opts,
		now:       time.Now,
		logger:    logger,
	}
}

// Create validates the cart, snapshots prices into a pending checkout and
// asks the provider for a hosted payment page. Stock is not reserved; the
// sale is recorded when the provider confirms payment.
func (s *CheckoutService) Create(ctx context.Context, slug string, shopper Shopper, req CreateCheckoutRequest) (*CheckoutResponse, error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	if shopper.OrganizationID != st.org.ID {
		return nil, shared.ErrForbidden.WithMessage("This account belongs to another store")
	}

	provider := strings.ToUpper(strings.TrimSpace(req.Provider))
	gateway, ok := s.gateways.Get(provider)
	if !ok || !st.settings.ProviderEnabled(provider) {
		return nil, shared.ErrInvalidInput.WithMessage("Payment provider %s is not available for this store", provider)
	}

	customer, err := s.customers.FindByIDForTenant(ctx, st.org.ID, shopper.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized.WithMessage("Account no longer exists")
		}
		return nil, err
	}

	items, err := s.snapshot(ctx, st, req.Items)
	if err != nil {
		return nil, err
	}
	checkout, err := storefront.NewCheckout(st.org.ID, customer.ID, provider, items, s.opts.TTL)
	if err != nil {
		return nil, err
	}
	checkout.CatalogUserID = &shopper.CatalogUserID
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, err
	}

	resp, err := gateway.CreateCheckout(ctx, s.gatewayRequest(st, customer, checkout))
	if s.metrics != nil {
		s.metrics.CheckoutStarted(ctx, provider, err)
	}
	if err != nil {
		if expErr := checkout.Expire(); expErr == nil {
			if saveErr := s.checkouts.Save(ctx, checkout); saveErr != nil {
				s.logger.Warn("Failed to expire abandoned checkout", zap.String("checkout_id", checkout.ID.String()), zap.Error(saveErr))
			}
		}
		return nil, fmt.Errorf("create %s checkout: %w", strings.ToLower(provider), err)
	}

	checkout.AttachProvider(resp.ProviderRef, resp.URL)
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, err
	}
	if provider == storefront.ProviderAsaas && resp.GatewayCustomerID != "" && customer.AsaasCustomerID != resp.GatewayCustomerID {
		customer.LinkAsaas(resp.GatewayCustomerID)
		if err := s.customers.Save(ctx, customer); err != nil {
			s.logger.Warn("Failed to store Asaas customer id", zap.String("customer_id", customer.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Checkout created",
		zap.String("organization_id", st.org.ID.String()),
		zap.String("checkout_id", checkout.ID.String()),
		zap.String("provider", provider),
		zap.String("total", checkout.Total.String()))
	out := toCheckoutResponse(checkout)
	return &out, nil
}

// ExpirePending expires unpaid checkouts past their deadline
func (s *CheckoutService) ExpirePending(ctx context.Context) (int64, error) {
	n, err := s.checkouts.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire checkouts: %w", err)
	}
	if n > 0 {
		s.logger.Info("Expired stale checkouts", zap.Int64("count", n))
	}
	return n, nil
}

// snapshot merges duplicate lines and prices them from the catalog
func (s *CheckoutService) snapshot(ctx context.Context, st *store, lines []CheckoutItemInput) ([]storefront.CheckoutItem, error) {
	quantities := make(map[uuid.UUID]int, len(lines))
	order := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, shared.ErrInvalidInput.WithMessage("Quantity must be positive")
		}
		if _, seen := quantities[l.ProductID]; !seen {
			order = append(order, l.ProductID)
		}
		quantities[l.ProductID] += l.Quantity
	}

	found, err := s.products.FindByIDs(ctx, st.org.ID, order)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]storefront.CheckoutItem, 0, len(order))
	for _, id := range order {
		p, ok := byID[id]
		if !ok || !p.Active || !p.ShowInCatalog {
			return nil, shared.ErrInvalidInput.WithMessage("Product %s is not available", id)
		}
		if p.Stock < quantities[id] {
			return nil, shared.ErrInsufficientStock.WithMessage("Only %d of %s left in stock", p.Stock, p.Name)
		}
		items = append(items, storefront.CheckoutItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    quantities[id],
			UnitPrice:   p.Price,
		})
	}
	return items, nil
}

func (s *CheckoutService) gatewayRequest(st *store, customer *partner.Customer, c *storefront.Checkout) payment.CreateCheckoutRequest {
	lines := make([]payment.CheckoutLine, len(c.Items))
	for i, it := range c.Items {
		lines[i] = payment.CheckoutLine{ProductID: it.ProductID, Name: it.ProductName, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	base := strings.TrimRight(strings.ReplaceAll(s.opts.ReturnURL, "{slug}", st.org.Slug), "/")
	buyer := payment.Buyer{
		CustomerID: customer.ID,
		Name:       customer.Name,
		Email:      customer.Email,
		Phone:      customer.Phone,
		Document:   customer.Document,
	}
	if c.Provider == storefront.ProviderAsaas {
		buyer.GatewayCustomerID = customer.AsaasCustomerID
	}
	return payment.CreateCheckoutRequest{
		CheckoutID:     c.ID,
		OrganizationID: st.org.ID,
		StoreName:      storeResponse(st.org, st.settings, nil).Title,
		Buyer:          buyer,
		Lines:          lines,
		Total:          c.Total,
		SuccessURL:     fmt.Sprintf("%s/checkout/success?checkout_id=%s", base, c.ID),
		CancelURL:      fmt.Sprintf("%s/checkout/cancel?checkout_id=%s", base, c.ID),
	}
}
