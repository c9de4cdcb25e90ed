package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/interfaces/http/dto"
	"github.com/storehub/backend/tests/testutil"
)

func (e *apiEnv) signUp(slug, email string) string {
	e.t.Helper()
	data := e.doJSON(http.MethodPost, "/api/v1/catalog/"+slug+"/auth/signup", map[string]any{
		"name": "Carla Souza", "email": email, "password": "compras-123",
	}, "", http.StatusCreated)
	token, ok := data["token"].(map[string]any)
	require.True(e.t, ok, "token missing: %v", data)
	return token["token"].(string)
}

func (e *apiEnv) enableStripe() {
	e.t.Helper()
	settings := e.doJSON(http.MethodPut, "/api/v1/catalog-settings", map[string]any{
		"enabled":        true,
		"title":          "Loja da Ana",
		"show_prices":    true,
		"stripe_enabled": true,
	}, e.ownerToken(), http.StatusOK)
	require.Equal(e.t, true, settings["stripe_enabled"])
}

func TestStorefrontHandler_PublicCatalog(t *testing.T) {
	e := newAPI(t)
	testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)
	testutil.SeedProduct(t, e.db, e.org.ID, "Beijinho", "3.00", 0)
	testutil.SeedCategory(t, e.db, e.org.ID, "Doces")

	store := e.doJSON(http.MethodGet, "/api/v1/catalog/loja", nil, "", http.StatusOK)
	assert.Equal(t, "loja", store["slug"])
	assert.Equal(t, "Loja da Ana", store["name"])

	w := e.do(http.MethodGet, "/api/v1/catalog/loja/products", nil, "")
	testutil.AssertSuccess(t, w, http.StatusOK)
	products := testutil.DecodeData[[]map[string]any](t, w)
	require.Len(t, products, 1, "out-of-stock products are hidden by default")
	assert.Equal(t, "Brigadeiro", products[0]["name"])

	w = e.do(http.MethodGet, "/api/v1/catalog/loja/categories", nil, "")
	testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Len(t, testutil.DecodeData[[]map[string]any](t, w), 1)

	w = e.do(http.MethodGet, "/api/v1/catalog/loja/products/not-a-uuid", nil, "")
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = e.do(http.MethodGet, "/api/v1/catalog/nao-existe", nil, "")
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestStorefrontHandler_Accounts(t *testing.T) {
	e := newAPI(t)
	token := e.signUp("loja", "carla@example.com")

	me := e.doJSON(http.MethodGet, "/api/v1/catalog/loja/me", nil, token, http.StatusOK)
	assert.Equal(t, "carla@example.com", me["email"])

	w := e.do(http.MethodPost, "/api/v1/catalog/loja/auth/signup", map[string]any{
		"name": "Carla Souza", "email": "carla@example.com", "password": "compras-123",
	}, "")
	testutil.AssertError(t, w, http.StatusConflict, dto.ErrCodeAlreadyExists)

	login := e.doJSON(http.MethodPost, "/api/v1/catalog/loja/auth/login", map[string]any{
		"email": "carla@example.com", "password": "compras-123",
	}, "", http.StatusOK)
	assert.NotEmpty(t, login["token"].(map[string]any)["token"])

	w = e.do(http.MethodPost, "/api/v1/catalog/loja/auth/login", map[string]any{
		"email": "carla@example.com", "password": "errada-123",
	}, "")
	testutil.AssertError(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)

	w = e.do(http.MethodGet, "/api/v1/catalog/loja/me/orders", nil, token)
	testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Empty(t, testutil.DecodeData[[]map[string]any](t, w))

	w = e.do(http.MethodGet, "/api/v1/catalog/loja/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStorefrontHandler_Checkout(t *testing.T) {
	e := newAPI(t)
	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)
	token := e.signUp("loja", "carla@example.com")
	cart := map[string]any{
		"provider": "stripe",
		"items":    []map[string]any{{"product_id": product.ID, "quantity": 3}},
	}

	w := e.do(http.MethodPost, "/api/v1/catalog/loja/checkout", cart, token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "provider disabled in settings")

	e.enableStripe()
	checkout := e.doJSON(http.MethodPost, "/api/v1/catalog/loja/checkout", cart, token, http.StatusCreated)
	assert.Equal(t, "https://pay.example.com/cs_test_1", checkout["url"])
	assert.Equal(t, "10.5", checkout["total"])
	assert.Equal(t, "PENDING", checkout["status"])
	require.Len(t, e.stripe.requests, 1)

	w = e.do(http.MethodPost, "/api/v1/catalog/loja/checkout", map[string]any{
		"provider": "stripe",
		"items":    []map[string]any{{"product_id": product.ID, "quantity": 11}},
	}, token)
	testutil.AssertError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)

	e.stripe.err = fmt.Errorf("%w: card declined", payment.ErrGatewayRequestFailed)
	w = e.do(http.MethodPost, "/api/v1/catalog/loja/checkout", cart, token)
	testutil.AssertError(t, w, http.StatusBadGateway, dto.ErrCodePaymentProvider)
}

func TestStorefrontHandler_CheckoutForeignShopper(t *testing.T) {
	e := newAPI(t)
	testutil.SeedOrganization(t, e.db, "Outra", "outra-loja")
	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)
	e.enableStripe()
	foreign := e.signUp("outra-loja", "carla@example.com")

	w := e.do(http.MethodPost, "/api/v1/catalog/loja/checkout", map[string]any{
		"provider": "stripe",
		"items":    []map[string]any{{"product_id": product.ID, "quantity": 1}},
	}, foreign)
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	assert.Empty(t, e.stripe.requests)
}

func TestStorefrontHandler_AccountScopedToStore(t *testing.T) {
	e := newAPI(t)
	testutil.SeedOrganization(t, e.db, "Outra", "outra-loja")
	own := e.signUp("loja", "bia@example.com")
	foreign := e.signUp("outra-loja", "carla@example.com")

	me := e.doJSON(http.MethodGet, "/api/v1/catalog/loja/me", nil, own, http.StatusOK)
	assert.Equal(t, "bia@example.com", me["email"])
	e.doJSON(http.MethodGet, "/api/v1/catalog/loja/me/orders", nil, own, http.StatusOK)

	w := e.do(http.MethodGet, "/api/v1/catalog/loja/me", nil, foreign)
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	w = e.do(http.MethodGet, "/api/v1/catalog/loja/me/orders", nil, foreign)
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestCatalogSettingsHandler(t *testing.T) {
	e := newAPI(t)
	token := e.ownerToken()

	settings := e.doJSON(http.MethodGet, "/api/v1/catalog-settings", nil, token, http.StatusOK)
	assert.Equal(t, []any{"STRIPE"}, settings["available_providers"])

	w := e.do(http.MethodPut, "/api/v1/catalog-settings", map[string]any{"enabled": true, "asaas_enabled": true}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "Asaas is not configured")

	w = e.do(http.MethodPut, "/api/v1/catalog-settings", map[string]any{"enabled": true, "primary_color": "blue"}, token)
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	e.doJSON(http.MethodPut, "/api/v1/catalog-settings", map[string]any{"enabled": false}, token, http.StatusOK)
	w = e.do(http.MethodGet, "/api/v1/catalog/loja", nil, "")
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}
