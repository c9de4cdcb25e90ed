package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	storefrontapp "github.com/storehub/backend/internal/application/storefront"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/interfaces/http/dto"
	"github.com/storehub/backend/internal/interfaces/http/handler"
	"github.com/storehub/backend/tests/testutil"
)

func webhookRouter(p handler.WebhookProcessor) *gin.Engine {
	h := handler.NewWebhookHandler(p)
	r := gin.New()
	r.POST("/webhooks/stripe", h.Stripe)
	r.POST("/webhooks/asaas", h.Asaas)
	return r
}

func TestWebhookHandler_StatusMapping(t *testing.T) {
	saleID := uuid.New()

	tests := []struct {
		name   string
		result *storefrontapp.WebhookResult
		err    error
		status int
		code   string
	}{
		{
			name:   "processed",
			result: &storefrontapp.WebhookResult{Provider: "STRIPE", EventType: "checkout.session.completed", Outcome: "processed", SaleID: &saleID, SaleNumber: 7},
			status: http.StatusOK,
		},
		{
			name:   "duplicate",
			result: &storefrontapp.WebhookResult{Provider: "STRIPE", Outcome: "duplicate", Duplicate: true},
			status: http.StatusOK,
		},
		{name: "bad signature", err: fmt.Errorf("verify: %w", payment.ErrInvalidSignature), status: http.StatusBadRequest, code: dto.ErrCodeInvalidSignature},
		{name: "bad payload", err: fmt.Errorf("decode: %w", payment.ErrInvalidPayload), status: http.StatusBadRequest, code: dto.ErrCodeBadRequest},
		{name: "missing metadata", err: shared.ErrInvalidInput.WithMessage("Session has no organization_id"), status: http.StatusBadRequest, code: dto.ErrCodeBadRequest},
		{name: "unknown organization", err: shared.ErrNotFound.WithMessage("Organization not found"), status: http.StatusBadRequest, code: dto.ErrCodeBadRequest},
		{name: "bad token", err: shared.ErrUnauthorized.WithMessage("Invalid webhook token"), status: http.StatusUnauthorized, code: dto.ErrCodeUnauthorized},
		{name: "database down", err: errors.New("connection refused"), status: http.StatusInternalServerError, code: dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProcessor{result: tt.result, err: tt.err}
			w := testutil.PerformRequest(t, webhookRouter(p), http.MethodPost, "/webhooks/stripe",
				[]byte(`{"id":"evt_1"}`), map[string]string{handler.StripeSignatureHeader: "t=1,v1=abc"})

			if tt.code == "" {
				testutil.AssertSuccess(t, w, tt.status)
			} else {
				testutil.AssertError(t, w, tt.status, tt.code)
			}
			assert.Equal(t, `{"id":"evt_1"}`, string(p.payload))
			assert.Equal(t, "t=1,v1=abc", p.auth)
		})
	}
}

func TestWebhookHandler_ResultBody(t *testing.T) {
	saleID := uuid.New()
	p := &stubProcessor{result: &storefrontapp.WebhookResult{
		Provider: "ASAAS", EventID: "evt_9", EventType: "PAYMENT_RECEIVED", Outcome: "processed", SaleID: &saleID, SaleNumber: 3,
	}}

	w := testutil.PerformRequest(t, webhookRouter(p), http.MethodPost, "/webhooks/asaas",
		[]byte(`{"event":"PAYMENT_RECEIVED"}`), map[string]string{handler.AsaasTokenHeader: "secret"})

	testutil.AssertSuccess(t, w, http.StatusOK)
	data := testutil.DecodeData[map[string]any](t, w)
	assert.Equal(t, saleID.String(), data["sale_id"])
	assert.Equal(t, float64(3), data["sale_number"])
	assert.Equal(t, false, data["duplicate"])
	assert.Equal(t, "secret", p.auth)
}

func TestWebhookHandler_PayloadTooLarge(t *testing.T) {
	p := &stubProcessor{result: &storefrontapp.WebhookResult{}}
	body := bytes.Repeat([]byte("a"), 64<<10+1)

	w := testutil.PerformRequest(t, webhookRouter(p), http.MethodPost, "/webhooks/stripe", body, nil)

	testutil.AssertError(t, w, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge)
	assert.Nil(t, p.payload, "processor must not run")
}

func TestWebhookHandler_ThroughRouter(t *testing.T) {
	e := newAPI(t)
	e.webhook.result = &storefrontapp.WebhookResult{Provider: "ASAAS", Outcome: "ignored"}

	w := testutil.PerformRequest(t, e.engine, http.MethodPost, "/webhooks/asaas", []byte(`{}`), nil)
	testutil.AssertSuccess(t, w, http.StatusOK)
}

func TestSystemHandler(t *testing.T) {
	healthy := handler.NewSystemHandler("1.2.3", map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	failing := handler.NewSystemHandler("1.2.3", map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	route := func(h *handler.SystemHandler) *gin.Engine {
		r := gin.New()
		r.GET("/health", h.Health)
		r.GET("/ready", h.Ready)
		return r
	}

	w := testutil.PerformRequest(t, route(healthy), http.MethodGet, "/health", nil, nil)
	testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Equal(t, "1.2.3", testutil.DecodeData[map[string]any](t, w)["version"])

	w = testutil.PerformRequest(t, route(healthy), http.MethodGet, "/ready", nil, nil)
	testutil.AssertSuccess(t, w, http.StatusOK)

	w = testutil.PerformRequest(t, route(failing), http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := testutil.DecodeData[map[string]any](t, w)["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "dial tcp: refused", checks["redis"])
}
