package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	storefrontapp "github.com/storehub/backend/internal/application/storefront"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/interfaces/http/dto"
	"github.com/storehub/backend/internal/interfaces/http/middleware"
)

// StorefrontHandler serves the public catalog of a store and its shopper
// accounts. Every route is scoped by the :slug path parameter.
type StorefrontHandler struct {
	BaseHandler
	catalogService  *storefrontapp.CatalogService
	accountService  *storefrontapp.AccountService
	checkoutService *storefrontapp.CheckoutService
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(
	catalogService *storefrontapp.CatalogService,
	accountService *storefrontapp.AccountService,
	checkoutService *storefrontapp.CheckoutService,
) *StorefrontHandler {
	return &StorefrontHandler{
		catalogService:  catalogService,
		accountService:  accountService,
		checkoutService: checkoutService,
	}
}

// Store godoc
// @ID           catalogStore
// @Summary      Store front page data
// @Tags         catalog
// @Produce      json
// @Param        slug path string true "Store slug"
// @Success      200 {object} APIResponse[storefrontapp.StoreResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/{slug} [get]
func (h *StorefrontHandler) Store(c *gin.Context) {
	store, err := h.catalogService.Store(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, store)
}

// Categories godoc
// @ID           catalogCategories
// @Summary      Store categories
// @Tags         catalog
// @Produce      json
// @Param        slug path string true "Store slug"
// @Success      200 {object} APIResponse[[]storefrontapp.PublicCategory]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/{slug}/categories [get]
func (h *StorefrontHandler) Categories(c *gin.Context) {
	categories, err := h.catalogService.Categories(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Products godoc
// @ID           catalogProducts
// @Summary      Store products
// @Description  Active products shown in the catalog. Out of stock products and prices follow the store settings.
// @Tags         catalog
// @Produce      json
// @Param        slug        path  string true  "Store slug"
// @Param        category_id query string false "Category ID" format(uuid)
// @Param        search      query string false "Name search"
// @Param        page        query int    false "Page" minimum(1)
// @Param        page_size   query int    false "Page size" minimum(1) maximum(100)
// @Success      200 {object} APIResponse[[]storefrontapp.PublicProduct]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/{slug}/products [get]
func (h *StorefrontHandler) Products(c *gin.Context) {
	var filter storefrontapp.PublicProductFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.catalogService.Products(c.Request.Context(), c.Param("slug"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Product godoc
// @ID           catalogProduct
// @Summary      Store product
// @Tags         catalog
// @Produce      json
// @Param        slug path string true "Store slug"
// @Param        id   path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[storefrontapp.PublicProduct]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/{slug}/products/{id} [get]
func (h *StorefrontHandler) Product(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "Product not found")
		return
	}
	product, err := h.catalogService.Product(c.Request.Context(), c.Param("slug"), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// SignUp godoc
// @ID           catalogSignUp
// @Summary      Create a shopper account
// @Description  Also creates, or links to, the store customer with the same email
// @Tags         catalog-account
// @Accept       json
// @Produce      json
// @Param        slug    path string                      true "Store slug"
// @Param        request body storefrontapp.SignUpRequest true "Account"
// @Success      201 {object} APIResponse[storefrontapp.AuthResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /catalog/{slug}/auth/signup [post]
func (h *StorefrontHandler) SignUp(c *gin.Context) {
	var req storefrontapp.SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.accountService.SignUp(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login godoc
// @ID           catalogLogin
// @Summary      Shopper login
// @Tags         catalog-account
// @Accept       json
// @Produce      json
// @Param        slug    path string                     true "Store slug"
// @Param        request body storefrontapp.LoginRequest true "Credentials"
// @Success      200 {object} APIResponse[storefrontapp.AuthResult]
// @Failure      401 {object} ErrorResponse
// @Router       /catalog/{slug}/auth/login [post]
func (h *StorefrontHandler) Login(c *gin.Context) {
	var req storefrontapp.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.accountService.Login(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me godoc
// @ID           catalogMe
// @Summary      Current shopper
// @Tags         catalog-account
// @Produce      json
// @Param        slug path string true "Store slug"
// @Success      200 {object} APIResponse[storefrontapp.AccountInfo]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Account of another store"
// @Security     CatalogAuth
// @Router       /catalog/{slug}/me [get]
func (h *StorefrontHandler) Me(c *gin.Context) {
	shopper, ok := h.shopper(c)
	if !ok {
		return
	}
	account, err := h.accountService.Me(c.Request.Context(), c.Param("slug"), shopper)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// MyOrders godoc
// @ID           catalogMyOrders
// @Summary      Shopper order history
// @Tags         catalog-account
// @Produce      json
// @Param        slug      path  string true  "Store slug"
// @Param        page      query int    false "Page" minimum(1)
// @Param        page_size query int    false "Page size" minimum(1) maximum(100)
// @Success      200 {object} APIResponse[[]tradeapp.SaleResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Account of another store"
// @Security     CatalogAuth
// @Router       /catalog/{slug}/me/orders [get]
func (h *StorefrontHandler) MyOrders(c *gin.Context) {
	shopper, ok := h.shopper(c)
	if !ok {
		return
	}
	var filter storefrontapp.OrdersFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.accountService.MyOrders(c.Request.Context(), c.Param("slug"), shopper, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Checkout godoc
// @ID           catalogCheckout
// @Summary      Start a checkout
// @Description  Prices are snapshotted and a payment page is opened with the chosen provider.
// @Description  Stock is checked but not reserved; the sale is recorded when the provider confirms payment.
// @Tags         catalog-checkout
// @Accept       json
// @Produce      json
// @Param        slug    path string                              true "Store slug"
// @Param        request body storefrontapp.CreateCheckoutRequest true "Cart"
// @Success      201 {object} APIResponse[storefrontapp.CheckoutResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Insufficient stock"
// @Failure      502 {object} ErrorResponse "Payment provider failure"
// @Security     CatalogAuth
// @Router       /catalog/{slug}/checkout [post]
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	shopper, ok := h.shopper(c)
	if !ok {
		return
	}
	var req storefrontapp.CreateCheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}
	checkout, err := h.checkoutService.Create(c.Request.Context(), c.Param("slug"), shopper, req)
	if errors.Is(err, payment.ErrGatewayRequestFailed) {
		_ = c.Error(err)
		h.Error(c, http.StatusBadGateway, dto.ErrCodePaymentProvider, "The payment provider could not open a checkout, please try again")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, checkout)
}

func (h *StorefrontHandler) shopper(c *gin.Context) (storefrontapp.Shopper, bool) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return storefrontapp.Shopper{}, false
	}
	shopper, err := storefrontapp.ShopperFromClaims(claims)
	if err != nil {
		h.Unauthorized(c, "Invalid catalog token")
		return storefrontapp.Shopper{}, false
	}
	return shopper, true
}
