package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/internal/interfaces/http/dto"
	"github.com/storehub/backend/tests/testutil"
)

func TestProductHandler_CRUD(t *testing.T) {
	e := newAPI(t)
	token := e.ownerToken()
	category := testutil.SeedCategory(t, e.db, e.org.ID, "Bolos")

	created := e.doJSON(http.MethodPost, "/api/v1/products", map[string]any{
		"name":        "Bolo de cenoura",
		"sku":         "BOLO-1",
		"category_id": category.ID,
		"price":       "35.90",
		"stock":       4,
		"min_stock":   2,
	}, token, http.StatusCreated)
	id := created["id"].(string)
	assert.Equal(t, "35.9", created["price"])
	assert.Equal(t, float64(4), created["stock"])

	got := e.doJSON(http.MethodGet, "/api/v1/products/"+id, nil, token, http.StatusOK)
	assert.Equal(t, "Bolo de cenoura", got["name"])

	updated := e.doJSON(http.MethodPut, "/api/v1/products/"+id, map[string]any{
		"name": "Bolo de cenoura com chocolate", "price": "39.90", "min_stock": 1,
	}, token, http.StatusOK)
	assert.Equal(t, "Bolo de cenoura com chocolate", updated["name"])

	deactivated := e.doJSON(http.MethodPost, "/api/v1/products/"+id+"/deactivate", nil, token, http.StatusOK)
	assert.Equal(t, false, deactivated["active"])

	w := e.do(http.MethodGet, "/api/v1/products?page=1&page_size=10", nil, token)
	testutil.AssertSuccess(t, w, http.StatusOK)
	meta := testutil.JSONBody(t, w)["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["total"])

	w = e.do(http.MethodPost, "/api/v1/products", map[string]any{"name": "Outro", "sku": "BOLO-1", "price": "1"}, token)
	testutil.AssertError(t, w, http.StatusConflict, dto.ErrCodeAlreadyExists)

	w = e.do(http.MethodDelete, "/api/v1/products/"+id, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(http.MethodGet, "/api/v1/products/"+id, nil, token)
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestProductHandler_Validation(t *testing.T) {
	e := newAPI(t)
	token := e.ownerToken()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"price": "10"}},
		{"missing price", map[string]any{"name": "Pão"}},
		{"negative stock", map[string]any{"name": "Pão", "price": "10", "stock": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/v1/products", tt.body, token)
			testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		})
	}

	t.Run("negative price", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/products", map[string]any{"name": "Pão", "price": "-1"}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := e.do(http.MethodGet, "/api/v1/products/not-a-uuid", nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminRoutes_TenantIsolation(t *testing.T) {
	e := newAPI(t)
	other := testutil.SeedOrganization(t, e.db, "Concorrente", "concorrente")
	rival := testutil.SeedUser(t, e.db, "Caio", "caio@example.com")
	testutil.SeedMember(t, e.db, other, rival, identity.RoleOwner)
	rivalToken := e.token(other, rival, identity.RoleOwner)

	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)
	customer := testutil.SeedCustomer(t, e.db, e.org.ID, "Dona Maria", "maria@example.com")
	category := testutil.SeedCategory(t, e.db, e.org.ID, "Doces")

	for _, path := range []string{
		"/api/v1/products/" + product.ID.String(),
		"/api/v1/customers/" + customer.ID.String(),
		"/api/v1/categories/" + category.ID.String(),
	} {
		w := e.do(http.MethodGet, path, nil, rivalToken)
		testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	}

	w := e.do(http.MethodGet, "/api/v1/products", nil, rivalToken)
	testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Empty(t, testutil.DecodeData[[]map[string]any](t, w))

	w = e.do(http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
	}, rivalToken)
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	stored, err := persistence.NewGormProductRepository(e.db).FindByIDForTenant(context.Background(), e.org.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)
}

func TestAdminRoutes_MemberRole(t *testing.T) {
	e := newAPI(t)
	clerk := testutil.SeedUser(t, e.db, "Beto", "beto@example.com")
	testutil.SeedMember(t, e.db, e.org, clerk, identity.RoleMember)
	token := e.token(e.org, clerk, identity.RoleMember)
	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)

	e.doJSON(http.MethodGet, "/api/v1/products/"+product.ID.String(), nil, token, http.StatusOK)
	e.doJSON(http.MethodPost, "/api/v1/customers", map[string]any{"name": "Dona Maria"}, token, http.StatusCreated)
	sale := e.doJSON(http.MethodPost, "/api/v1/sales", map[string]any{
		"pending": true,
		"items":   []map[string]any{{"product_id": product.ID, "quantity": 1}},
	}, token, http.StatusCreated)
	e.doJSON(http.MethodPost, "/api/v1/sales/"+sale["id"].(string)+"/complete", nil, token, http.StatusOK)

	w := e.do(http.MethodDelete, "/api/v1/products/"+product.ID.String(), nil, token)
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	w = e.do(http.MethodPut, "/api/v1/catalog-settings", map[string]any{"enabled": false}, token)
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestInventoryHandler_Movements(t *testing.T) {
	e := newAPI(t)
	token := e.ownerToken()
	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 5)

	in := e.doJSON(http.MethodPost, "/api/v1/inventory/movements", map[string]any{
		"product_id": product.ID, "type": "IN", "quantity": 10, "reason": "Produção",
	}, token, http.StatusCreated)
	assert.Equal(t, float64(15), in["balance_after"])

	w := e.do(http.MethodPost, "/api/v1/inventory/movements", map[string]any{
		"product_id": product.ID, "type": "OUT", "quantity": 100,
	}, token)
	testutil.AssertError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)

	w = e.do(http.MethodGet, "/api/v1/inventory/movements?product_id="+product.ID.String(), nil, token)
	testutil.AssertSuccess(t, w, http.StatusOK)
	assert.Len(t, testutil.DecodeData[[]map[string]any](t, w), 1)
}

func TestSaleHandler_Lifecycle(t *testing.T) {
	e := newAPI(t)
	token := e.ownerToken()
	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)
	customer := testutil.SeedCustomer(t, e.db, e.org.ID, "Dona Maria", "maria@example.com")

	sale := e.doJSON(http.MethodPost, "/api/v1/sales", map[string]any{
		"customer_id":    customer.ID,
		"payment_method": "PIX",
		"discount":       "1",
		"items":          []map[string]any{{"product_id": product.ID, "quantity": 4}},
	}, token, http.StatusCreated)
	id := sale["id"].(string)
	assert.Equal(t, float64(1), sale["number"])
	assert.Equal(t, "14", sale["subtotal"])
	assert.Equal(t, "13", sale["total"])

	second := e.doJSON(http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
	}, token, http.StatusCreated)
	assert.Equal(t, float64(2), second["number"])

	w := e.do(http.MethodGet, "/api/v1/sales/"+id+"/receipt?format=html", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "venda-1.html")
	assert.Contains(t, w.Body.String(), "Brigadeiro")

	w = e.do(http.MethodGet, "/api/v1/sales/"+id+"/receipt?format=pdf", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cancelled := e.doJSON(http.MethodPost, "/api/v1/sales/"+id+"/cancel", nil, token, http.StatusOK)
	assert.Equal(t, "CANCELLED", cancelled["status"])

	w = e.do(http.MethodPost, "/api/v1/sales/"+id+"/cancel", nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	stored, err := persistence.NewGormProductRepository(e.db).FindByIDForTenant(context.Background(), e.org.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.Stock)

	w = e.do(http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": uuid.New(), "quantity": 1}},
	}, token)
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)

	boleto := e.doJSON(http.MethodPost, "/api/v1/sales", map[string]any{
		"payment_method": "BOLETO",
		"pending":        true,
		"items":          []map[string]any{{"product_id": product.ID, "quantity": 2}},
	}, token, http.StatusCreated)
	assert.Equal(t, "PENDING", boleto["status"])
	assert.Equal(t, float64(2), boleto["item_count"])

	paid := e.doJSON(http.MethodPost, "/api/v1/sales/"+boleto["id"].(string)+"/complete", nil, token, http.StatusOK)
	assert.Equal(t, "COMPLETED", paid["status"])
	assert.NotEmpty(t, paid["completed_at"])

	w = e.do(http.MethodPost, "/api/v1/sales/"+boleto["id"].(string)+"/complete", nil, token)
	testutil.AssertError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)

	w = e.do(http.MethodPost, "/api/v1/sales", map[string]any{"items": []map[string]any{}}, token)
	testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestDashboardHandler_Summary(t *testing.T) {
	e := newAPI(t)
	token := e.ownerToken()
	product := testutil.SeedProduct(t, e.db, e.org.ID, "Brigadeiro", "3.50", 10)
	e.doJSON(http.MethodPost, "/api/v1/sales", map[string]any{
		"items": []map[string]any{{"product_id": product.ID, "quantity": 2}},
	}, token, http.StatusCreated)

	summary := e.doJSON(http.MethodGet, "/api/v1/dashboard", nil, token, http.StatusOK)
	assert.Equal(t, float64(1), summary["sales_count"])
	assert.Equal(t, "7", summary["revenue"])

	w := e.do(http.MethodGet, "/api/v1/dashboard?from=2026-02-01&to=2026-01-01", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
