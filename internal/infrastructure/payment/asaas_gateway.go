package payment

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/config"
)

// AsaasGateway talks to the Asaas v3 REST API
type AsaasGateway struct {
	baseURL      string
	apiKey       string
	webhookToken string
	dueDays      int
	httpClient   *http.Client
	now          func() time.Time
	logger       *zap.Logger
}

// AsaasOption configures an AsaasGateway
type AsaasOption func(*AsaasGateway)

// WithAsaasHTTPClient replaces the HTTP client
func WithAsaasHTTPClient(c *http.Client) AsaasOption {
	return func(g *AsaasGateway) {
		g.httpClient = c
	}
}

// NewAsaasGateway validates cfg and builds the gateway. An empty base URL
// selects production when the key is a production key and sandbox otherwise.
func NewAsaasGateway(cfg config.AsaasConfig, logger *zap.Logger, opts ...AsaasOption) (*AsaasGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("asaas: %w: api key is required", payment.ErrGatewayNotConfigured)
	}
	if cfg.WebhookToken == "" {
		return nil, fmt.Errorf("asaas: %w: webhook token is required", payment.ErrGatewayNotConfigured)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = asaasSandboxURL
		if strings.HasPrefix(cfg.APIKey, "$aact_prod_") {
			baseURL = asaasProductionURL
		}
	}
	dueDays := cfg.DueDays
	if dueDays <= 0 {
		dueDays = 1
	}
	g := &AsaasGateway{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		webhookToken: cfg.WebhookToken,
		dueDays:      dueDays,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Provider implements payment.CheckoutGateway
func (g *AsaasGateway) Provider() string {
	return storefront.ProviderAsaas
}

// CreateCheckout ensures an Asaas customer exists for the buyer and creates
// a payment the buyer settles on the hosted invoice page
func (g *AsaasGateway) CreateCheckout(ctx context.Context, req payment.CreateCheckoutRequest) (*payment.CreateCheckoutResponse, error) {
	if !req.Total.IsPositive() {
		return nil, fmt.Errorf("asaas: checkout total must be positive")
	}

	customerID := req.Buyer.GatewayCustomerID
	if customerID == "" {
		created, err := g.createCustomer(ctx, req.Buyer)
		if err != nil {
			return nil, err
		}
		customerID = created
	}

	body := asaasPaymentRequest{
		Customer:          customerID,
		BillingType:       asaasBillingTypeUndefined,
		Value:             asaasAmount(req.Total),
		DueDate:           g.now().AddDate(0, 0, g.dueDays).Format(asaasDateLayout),
		Description:       checkoutDescription(req),
		ExternalReference: req.CheckoutID.String(),
	}
	var resp asaasPaymentResponse
	if err := g.do(ctx, http.MethodPost, "/payments", body, &resp); err != nil {
		g.logger.Error("Failed to create Asaas payment",
			zap.String("checkout_id", req.CheckoutID.String()),
			zap.Error(err))
		return nil, err
	}

	g.logger.Info("Created Asaas payment",
		zap.String("checkout_id", req.CheckoutID.String()),
		zap.String("payment_id", resp.ID))

	return &payment.CreateCheckoutResponse{
		ProviderRef:       resp.ID,
		URL:               resp.InvoiceURL,
		GatewayCustomerID: customerID,
	}, nil
}

func (g *AsaasGateway) createCustomer(ctx context.Context, buyer payment.Buyer) (string, error) {
	body := asaasCustomerRequest{
		Name:              buyer.Name,
		CpfCnpj:           digitsOnly(buyer.Document),
		Email:             buyer.Email,
		MobilePhone:       digitsOnly(buyer.Phone),
		ExternalReference: buyer.CustomerID.String(),
		NotificationsOff:  true,
	}
	var resp asaasCustomerResponse
	if err := g.do(ctx, http.MethodPost, "/customers", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("asaas: %w: customer response has no id", payment.ErrGatewayRequestFailed)
	}
	return resp.ID, nil
}

// VerifyWebhookToken compares the asaas-access-token header in constant time
func (g *AsaasGateway) VerifyWebhookToken(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.webhookToken)) == 1
}

// ParseWebhook decodes an Asaas notification. The token header must be
// checked with VerifyWebhookToken first.
func (g *AsaasGateway) ParseWebhook(payload []byte) (*payment.WebhookEvent, error) {
	var body asaasWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("asaas: %w: %v", payment.ErrInvalidPayload, err)
	}
	if body.Event == "" {
		return nil, fmt.Errorf("asaas: %w: missing event", payment.ErrInvalidPayload)
	}

	out := &payment.WebhookEvent{
		Provider: storefront.ProviderAsaas,
		EventID:  body.ID,
		Type:     body.Event,
	}
	if body.Event != AsaasEventPaymentReceived && body.Event != AsaasEventPaymentConfirmed {
		return out, nil
	}
	if body.Payment == nil || body.Payment.ID == "" {
		return nil, fmt.Errorf("asaas: %w: missing payment", payment.ErrInvalidPayload)
	}
	out.Paid = true
	out.ProviderRef = body.Payment.ID
	out.ExternalReference = body.Payment.ExternalReference
	out.Amount = decimal.Decimal(body.Payment.Value)
	out.GatewayCustomerID = body.Payment.Customer
	return out, nil
}

func (g *AsaasGateway) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("asaas: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("asaas: failed to build request: %w", err)
	}
	req.Header.Set("access_token", g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "storehub-backend")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("asaas: %w: %v", payment.ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("asaas: %w: read response: %v", payment.ErrGatewayRequestFailed, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr asaasErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && len(apiErr.Errors) > 0 {
			return fmt.Errorf("asaas: %w: status %d: %s", payment.ErrGatewayRequestFailed, resp.StatusCode, apiErr)
		}
		return fmt.Errorf("asaas: %w: status %d", payment.ErrGatewayRequestFailed, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("asaas: %w: decode response: %v", payment.ErrGatewayRequestFailed, err)
	}
	return nil
}

func checkoutDescription(req payment.CreateCheckoutRequest) string {
	if req.StoreName == "" {
		return "Pedido " + req.CheckoutID.String()[:8]
	}
	return req.StoreName + " - pedido " + req.CheckoutID.String()[:8]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ payment.CheckoutGateway = (*AsaasGateway)(nil)
