package storefront

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appcatalog "github.com/storehub/backend/internal/application/catalog"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/auth"
)

// =============================================================================
// Settings
// =============================================================================

// UpdateSettingsRequest replaces the storefront settings
type UpdateSettingsRequest struct {
	Enabled        bool           `json:"enabled"`
	Title          string         `json:"title" binding:"max=200"`
	Description    string         `json:"description" binding:"max=2000"`
	LogoURL        string         `json:"logo_url" binding:"omitempty,url,max=500"`
	PrimaryColor   string         `json:"primary_color" binding:"omitempty,hexcolor"`
	WhatsApp       string         `json:"whatsapp" binding:"max=30"`
	ShowPrices     bool           `json:"show_prices"`
	ShowOutOfStock bool           `json:"show_out_of_stock"`
	StripeEnabled  bool           `json:"stripe_enabled"`
	AsaasEnabled   bool           `json:"asaas_enabled"`
	Banners        []string       `json:"banners" binding:"max=8,dive,url"`
	Theme          map[string]any `json:"theme"`
}

func (r UpdateSettingsRequest) toDomain() storefront.SettingsUpdate {
	return storefront.SettingsUpdate{
		Enabled:        r.Enabled,
		Title:          r.Title,
		Description:    r.Description,
		LogoURL:        r.LogoURL,
		PrimaryColor:   r.PrimaryColor,
		WhatsApp:       r.WhatsApp,
		ShowPrices:     r.ShowPrices,
		ShowOutOfStock: r.ShowOutOfStock,
		StripeEnabled:  r.StripeEnabled,
		AsaasEnabled:   r.AsaasEnabled,
		Banners:        r.Banners,
		Theme:          r.Theme,
	}
}

// SettingsResponse is the admin view of the storefront settings
type SettingsResponse struct {
	Enabled        bool           `json:"enabled"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	LogoURL        string         `json:"logo_url"`
	PrimaryColor   string         `json:"primary_color"`
	WhatsApp       string         `json:"whatsapp"`
	ShowPrices     bool           `json:"show_prices"`
	ShowOutOfStock bool           `json:"show_out_of_stock"`
	StripeEnabled  bool           `json:"stripe_enabled"`
	AsaasEnabled   bool           `json:"asaas_enabled"`
	Banners        []string       `json:"banners"`
	Theme          map[string]any `json:"theme"`
	// AvailableProviders lists the gateways configured on this deployment
	AvailableProviders []string  `json:"available_providers"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToSettingsResponse converts domain settings
func ToSettingsResponse(s *storefront.CatalogSettings, available []string) SettingsResponse {
	return SettingsResponse{
		Enabled:            s.Enabled,
		Title:              s.Title,
		Description:        s.Description,
		LogoURL:            s.LogoURL,
		PrimaryColor:       s.PrimaryColor,
		WhatsApp:           s.WhatsApp,
		ShowPrices:         s.ShowPrices,
		ShowOutOfStock:     s.ShowOutOfStock,
		StripeEnabled:      s.StripeEnabled,
		AsaasEnabled:       s.AsaasEnabled,
		Banners:            append([]string{}, s.Banners...),
		Theme:              map[string]any(s.Theme),
		AvailableProviders: available,
		UpdatedAt:          s.UpdatedAt,
	}
}

// StoreResponse is what shoppers see about a storefront
type StoreResponse struct {
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	LogoURL      string         `json:"logo_url"`
	PrimaryColor string         `json:"primary_color"`
	WhatsApp     string         `json:"whatsapp,omitempty"`
	ShowPrices   bool           `json:"show_prices"`
	Banners      []string       `json:"banners"`
	Theme        map[string]any `json:"theme"`
	// Providers lists the checkout options shoppers can pick
	Providers []string `json:"providers"`
}

// =============================================================================
// Browsing
// =============================================================================

// PublicCategory is a category as listed on the storefront
type PublicCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// PublicProductFilter narrows storefront product listings
type PublicProductFilter struct {
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Search     string `form:"search" binding:"max=100"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PublicProduct is a product as shown on the storefront. Price is nil when
// the store hides prices.
type PublicProduct struct {
	ID          uuid.UUID                 `json:"id"`
	CategoryID  *uuid.UUID                `json:"category_id,omitempty"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Price       *decimal.Decimal          `json:"price,omitempty"`
	InStock     bool                      `json:"in_stock"`
	Images      []appcatalog.ProductImage `json:"images"`
}

func toPublicProduct(p *catalog.Product, showPrice bool, urls appcatalog.ImageURLResolver) PublicProduct {
	out := PublicProduct{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		InStock:     p.Stock > 0,
		Images:      appcatalog.ProductImages(p.Images, urls),
	}
	if showPrice {
		price := p.Price
		out.Price = &price
	}
	return out
}

// =============================================================================
// Shopper accounts
// =============================================================================

// SignUpRequest creates a shopper account
type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=200"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone" binding:"max=30"`
	Document string `json:"document" binding:"max=20"`
}

// LoginRequest authenticates a shopper
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AccountInfo describes a shopper account
type AccountInfo struct {
	ID          uuid.UUID  `json:"id"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Document    string     `json:"document,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toAccountInfo(u *storefront.CatalogUser, c *partner.Customer) AccountInfo {
	info := AccountInfo{
		ID:          u.ID,
		CustomerID:  u.CustomerID,
		Name:        u.Name,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
	}
	if c != nil {
		info.Phone = c.Phone
		info.Document = c.Document
	}
	return info
}

// AuthResult is returned on shopper sign-up and login
type AuthResult struct {
	Token   *auth.CatalogToken `json:"token"`
	Account AccountInfo        `json:"account"`
}

// Shopper identifies an authenticated storefront account
type Shopper struct {
	OrganizationID uuid.UUID
	CatalogUserID  uuid.UUID
	CustomerID     uuid.UUID
}

// ShopperFromClaims reads a shopper out of catalog token claims
func ShopperFromClaims(c *auth.Claims) (Shopper, error) {
	var s Shopper
	var err error
	if s.OrganizationID, err = c.TenantUUID(); err != nil {
		return s, err
	}
	if s.CatalogUserID, err = c.UserUUID(); err != nil {
		return s, err
	}
	if s.CustomerID, err = c.CustomerUUID(); err != nil {
		return s, err
	}
	return s, nil
}

// OrdersFilter pages a shopper's order history
type OrdersFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =============================================================================
// Checkout
// =============================================================================

// CheckoutItemInput is one cart line
type CheckoutItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=999"`
}

// CreateCheckoutRequest hands a cart to a payment provider
type CreateCheckoutRequest struct {
	Provider string              `json:"provider" binding:"required,oneof=STRIPE ASAAS stripe asaas"`
	Items    []CheckoutItemInput `json:"items" binding:"required,min=1,max=100,dive"`
}

// CheckoutResponse tells the shopper where to pay
type CheckoutResponse struct {
	ID        uuid.UUID                 `json:"id"`
	Provider  string                    `json:"provider"`
	URL       string                    `json:"url"`
	Status    storefront.CheckoutStatus `json:"status"`
	Total     decimal.Decimal           `json:"total"`
	ExpiresAt time.Time                 `json:"expires_at"`
}

func toCheckoutResponse(c *storefront.Checkout) CheckoutResponse {
	return CheckoutResponse{
		ID:        c.ID,
		Provider:  c.Provider,
		URL:       c.CheckoutURL,
		Status:    c.Status,
		Total:     c.Total,
		ExpiresAt: c.ExpiresAt,
	}
}

// =============================================================================
// Webhooks
// =============================================================================

// WebhookResult reports what a webhook delivery did
type WebhookResult struct {
	Provider   string     `json:"provider"`
	EventID    string     `json:"event_id,omitempty"`
	EventType  string     `json:"event_type"`
	Outcome    string     `json:"outcome"`
	Duplicate  bool       `json:"duplicate"`
	SaleID     *uuid.UUID `json:"sale_id,omitempty"`
	SaleNumber int64      `json:"sale_number,omitempty"`
}

func storeResponse(org *identity.Organization, s *storefront.CatalogSettings, providers []string) StoreResponse {
	title := s.Title
	if title == "" {
		title = org.Name
	}
	return StoreResponse{
		Slug:         org.Slug,
		Name:         org.Name,
		Title:        title,
		Description:  s.Description,
		LogoURL:      s.LogoURL,
		PrimaryColor: s.PrimaryColor,
		WhatsApp:     s.WhatsApp,
		ShowPrices:   s.ShowPrices,
		Banners:      append([]string{}, s.Banners...),
		Theme:        map[string]any(s.Theme),
		Providers:    providers,
	}
}
