package handler_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogapp "github.com/storehub/backend/internal/application/catalog"
	identityapp "github.com/storehub/backend/internal/application/identity"
	inventoryapp "github.com/storehub/backend/internal/application/inventory"
	partnerapp "github.com/storehub/backend/internal/application/partner"
	reportapp "github.com/storehub/backend/internal/application/report"
	storefrontapp "github.com/storehub/backend/internal/application/storefront"
	tradeapp "github.com/storehub/backend/internal/application/trade"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/auth"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/internal/infrastructure/printing"
	"github.com/storehub/backend/internal/interfaces/http/handler"
	"github.com/storehub/backend/internal/interfaces/http/middleware"
	"github.com/storehub/backend/internal/interfaces/http/router"
	"github.com/storehub/backend/tests/testutil"
)

func init() {
	middleware.SetupValidator()
}

// fakeGateway records checkout requests and answers with a fixed URL or err
type fakeGateway struct {
	provider string
	err      error

	mu       sync.Mutex
	requests []payment.CreateCheckoutRequest
}

func (g *fakeGateway) Provider() string { return g.provider }

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CreateCheckoutRequest) (*payment.CreateCheckoutResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.CreateCheckoutResponse{ProviderRef: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

// stubProcessor answers webhook deliveries with a fixed result or error
type stubProcessor struct {
	result  *storefrontapp.WebhookResult
	err     error
	payload []byte
	auth    string
}

func (s *stubProcessor) HandleStripe(_ context.Context, payload []byte, signature string) (*storefrontapp.WebhookResult, error) {
	s.payload, s.auth = payload, signature
	return s.result, s.err
}

func (s *stubProcessor) HandleAsaas(_ context.Context, payload []byte, token string) (*storefrontapp.WebhookResult, error) {
	s.payload, s.auth = payload, token
	return s.result, s.err
}

type apiEnv struct {
	t       *testing.T
	db      *gorm.DB
	engine  *gin.Engine
	jwt     *auth.JWTService
	org     *identity.Organization
	owner   *identity.User
	stripe  *fakeGateway
	webhook *stubProcessor
}

// newAPI wires the real services over SQLite behind the production route table.
// The seeded organization "loja" has an OWNER and an enabled storefront.
func newAPI(t *testing.T) *apiEnv {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	jwtService := testutil.NewJWTService()
	log := zap.NewNop()
	events := testutil.NewRecordingPublisher()

	stripe := &fakeGateway{provider: storefront.ProviderStripe}
	gateways := storefrontapp.NewGateways(stripe)

	printer, err := printing.NewReceiptPrinter(printing.NewMoneyFormatter("pt-BR", "BRL"), nil)
	require.NoError(t, err)

	authService := identityapp.NewAuthService(scope, repos.Organizations(), repos.Users(), repos.Members(), jwtService, nil, events, log)
	saleService := tradeapp.NewSaleService(scope, repos.Sales(), repos.Customers(), repos.Organizations(), printer, events, log)
	resolver := storefrontapp.NewResolver(repos.Organizations(), repos.CatalogSettings(), nil, nil, 0, log)
	webhook := &stubProcessor{}

	h := router.Handlers{
		System:       handler.NewSystemHandler("test", nil),
		Auth:         handler.NewAuthHandler(authService),
		Organization: handler.NewOrganizationHandler(identityapp.NewOrganizationService(repos.Organizations(), repos.Users(), repos.Members(), log)),
		Category:     handler.NewCategoryHandler(catalogapp.NewCategoryService(repos.Categories(), log)),
		Product:      handler.NewProductHandler(catalogapp.NewProductService(scope, repos.Products(), repos.Categories(), nil, events, log)),
		Customer:     handler.NewCustomerHandler(partnerapp.NewCustomerService(repos.Customers(), log)),
		Inventory:    handler.NewInventoryHandler(inventoryapp.NewInventoryService(scope, repos.StockMovements(), repos.Products(), events, log)),
		Sale:         handler.NewSaleHandler(saleService),
		Dashboard:    handler.NewDashboardHandler(reportapp.NewDashboardService(persistence.NewGormDashboardRepository(db), repos.Products(), repos.Customers(), log)),
		Settings:     handler.NewCatalogSettingsHandler(storefrontapp.NewSettingsService(repos.CatalogSettings(), repos.Organizations(), gateways, resolver, log)),
		Storefront: handler.NewStorefrontHandler(
			storefrontapp.NewCatalogService(repos.Organizations(), repos.CatalogSettings(), repos.Categories(), repos.Products(), nil, gateways),
			storefrontapp.NewAccountService(scope, repos.Organizations(), repos.CatalogSettings(), repos.CatalogUsers(), repos.Customers(), saleService, jwtService, log),
			storefrontapp.NewCheckoutService(repos.Organizations(), repos.CatalogSettings(), repos.Customers(), repos.Products(), repos.Checkouts(),
				gateways, nil, storefrontapp.CheckoutOptions{}, log),
		),
		Webhook: handler.NewWebhookHandler(webhook),
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	router.RegisterAPI(r, h, router.Guards{
		Staff:   middleware.JWTAuth(middleware.JWTMiddlewareConfig{JWTService: jwtService, Checker: authService}),
		Shopper: middleware.CatalogAuth(jwtService, log),
	})
	r.Setup()

	org := testutil.SeedOrganization(t, db, "Loja da Ana", "loja")
	owner := testutil.SeedUser(t, db, "Ana", "ana@example.com")
	testutil.SeedMember(t, db, org, owner, identity.RoleOwner)

	return &apiEnv{t: t, db: db, engine: engine, jwt: jwtService, org: org, owner: owner, stripe: stripe, webhook: webhook}
}

// token signs an access token for user in org with role
func (e *apiEnv) token(org *identity.Organization, user *identity.User, role identity.Role) string {
	e.t.Helper()
	pair, err := e.jwt.GenerateTokenPair(auth.StaffTokenInput{TenantID: org.ID, UserID: user.ID, Email: user.Email, Role: string(role)})
	require.NoError(e.t, err)
	return pair.AccessToken
}

func (e *apiEnv) ownerToken() string {
	return e.token(e.org, e.owner, identity.RoleOwner)
}

func (e *apiEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var headers map[string]string
	if token != "" {
		headers = map[string]string{middleware.AuthHeaderKey: middleware.BearerPrefix + token}
	}
	return testutil.PerformRequest(e.t, e.engine, method, path, body, headers)
}

func (e *apiEnv) doJSON(method, path string, body any, token string, status int) map[string]any {
	e.t.Helper()
	w := e.do(method, path, body, token)
	testutil.AssertSuccess(e.t, w, status)
	data, _ := testutil.JSONBody(e.t, w)["data"].(map[string]any)
	return data
}
