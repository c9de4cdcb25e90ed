package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	storefrontapp "github.com/storehub/backend/internal/application/storefront"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/interfaces/http/dto"
)

// Provider webhooks are small; anything larger is rejected unread
const maxWebhookPayloadSize = 64 << 10

// Header names used by the providers
const (
	StripeSignatureHeader = "Stripe-Signature"
	AsaasTokenHeader      = "asaas-access-token"
)

// WebhookProcessor reconciles provider deliveries into sales
type WebhookProcessor interface {
	HandleStripe(ctx context.Context, payload []byte, signature string) (*storefrontapp.WebhookResult, error)
	HandleAsaas(ctx context.Context, payload []byte, token string) (*storefrontapp.WebhookResult, error)
}

// WebhookHandler receives payment provider webhooks. These endpoints are
// called by the providers and carry no user authentication.
//
// Providers retry on 5xx only: accepted, ignored and duplicate events get 200,
// deliveries that can never succeed get 4xx.
type WebhookHandler struct {
	BaseHandler
	processor WebhookProcessor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// Stripe godoc
// @ID           stripeWebhook
// @Summary      Stripe webhook
// @Description  Paid checkout sessions become sales; other events are acknowledged
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe webhook signature"
// @Success      200 {object} APIResponse[storefrontapp.WebhookResult]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, ok := h.readPayload(c)
	if !ok {
		return
	}
	result, err := h.processor.HandleStripe(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader))
	h.respond(c, result, err)
}

// Asaas godoc
// @ID           asaasWebhook
// @Summary      Asaas webhook
// @Description  Received or confirmed payments become sales; other events are acknowledged
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        asaas-access-token header string true "Webhook token configured in Asaas"
// @Success      200 {object} APIResponse[storefrontapp.WebhookResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /webhooks/asaas [post]
func (h *WebhookHandler) Asaas(c *gin.Context) {
	payload, ok := h.readPayload(c)
	if !ok {
		return
	}
	result, err := h.processor.HandleAsaas(c.Request.Context(), payload, c.GetHeader(AsaasTokenHeader))
	h.respond(c, result, err)
}

// readPayload reads the raw body; signatures are computed over the exact bytes
func (h *WebhookHandler) readPayload(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return nil, false
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Payload too large")
		return nil, false
	}
	return payload, true
}

func (h *WebhookHandler) respond(c *gin.Context, result *storefrontapp.WebhookResult, err error) {
	switch {
	case err == nil:
		h.Success(c, result)
	case errors.Is(err, shared.ErrUnauthorized):
		h.Unauthorized(c, "Invalid webhook token")
	case errors.Is(err, payment.ErrInvalidSignature):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
	case storefrontapp.IsPermanentWebhookError(err):
		h.BadRequest(c, webhookMessage(err))
	default:
		_ = c.Error(err)
		h.InternalError(c, "Webhook processing failed")
	}
}

func webhookMessage(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "Invalid webhook payload"
}
