package router

import (
	"github.com/gin-gonic/gin"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/interfaces/http/handler"
	"github.com/storehub/backend/internal/interfaces/http/middleware"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	System       *handler.SystemHandler
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	Category     *handler.CategoryHandler
	Product      *handler.ProductHandler
	Customer     *handler.CustomerHandler
	Inventory    *handler.InventoryHandler
	Sale         *handler.SaleHandler
	Dashboard    *handler.DashboardHandler
	Settings     *handler.CatalogSettingsHandler
	Storefront   *handler.StorefrontHandler
	Webhook      *handler.WebhookHandler
}

// Guards are the authentication middlewares applied per audience
type Guards struct {
	// Staff authenticates admin access tokens (middleware.JWTAuth)
	Staff gin.HandlerFunc
	// Shopper authenticates storefront tokens (middleware.CatalogAuth)
	Shopper gin.HandlerFunc
	// Credentials throttles login, signup and refresh; optional
	Credentials gin.HandlerFunc
}

// RegisterAPI mounts the whole route table on r. Staff routes need a token
// with an organization; reads are open to every member while catalog and
// organization writes need ADMIN.
func RegisterAPI(r *Router, h Handlers, g Guards) {
	throttle := g.Credentials
	if throttle == nil {
		throttle = func(c *gin.Context) { c.Next() }
	}
	member := middleware.RequireRole(identity.RoleMember)
	admin := middleware.RequireRole(identity.RoleAdmin)

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/ready", h.System.Ready)
	r.RegisterRoot(system)

	webhooks := NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/stripe", h.Webhook.Stripe)
	webhooks.POST("/asaas", h.Webhook.Asaas)
	r.RegisterRoot(webhooks)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", throttle, h.Auth.Register).
		POST("/login", throttle, h.Auth.Login).
		POST("/refresh", throttle, h.Auth.Refresh)
	session := auth.Group("session", "")
	session.Use(g.Staff, middleware.RequireOrganization())
	session.POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me).
		POST("/switch-organization", h.Auth.SwitchOrganization).
		PUT("/password", h.Auth.ChangePassword)
	r.Register(auth)

	staff := NewDomainGroup("staff", "")
	staff.Use(g.Staff, middleware.RequireOrganization(), member)

	staff.Group("organization", "/organization").
		GET("", h.Organization.Get).
		PUT("", admin, h.Organization.Update).
		GET("/members", h.Organization.ListMembers).
		POST("/members", admin, h.Organization.AddMember).
		DELETE("/members/:user_id", admin, h.Organization.RemoveMember)

	staff.Group("categories", "/categories").
		POST("", admin, h.Category.Create).
		GET("", h.Category.List).
		GET("/:id", h.Category.GetByID).
		PUT("/:id", admin, h.Category.Update).
		DELETE("/:id", admin, h.Category.Delete)

	staff.Group("products", "/products").
		POST("", admin, h.Product.Create).
		GET("", h.Product.List).
		GET("/:id", h.Product.GetByID).
		PUT("/:id", admin, h.Product.Update).
		DELETE("/:id", admin, h.Product.Delete).
		POST("/:id/activate", admin, h.Product.Activate).
		POST("/:id/deactivate", admin, h.Product.Deactivate).
		POST("/:id/images", admin, h.Product.ImageUploadURL).
		DELETE("/:id/images", admin, h.Product.RemoveImage)

	staff.Group("customers", "/customers").
		POST("", h.Customer.Create).
		GET("", h.Customer.List).
		GET("/:id", h.Customer.GetByID).
		PUT("/:id", h.Customer.Update).
		DELETE("/:id", admin, h.Customer.Delete)

	staff.Group("inventory", "/inventory").
		POST("/movements", h.Inventory.RecordMovement).
		GET("/movements", h.Inventory.ListMovements).
		GET("/low-stock", h.Inventory.LowStock)

	staff.Group("sales", "/sales").
		POST("", h.Sale.Create).
		GET("", h.Sale.List).
		GET("/:id", h.Sale.GetByID).
		POST("/:id/complete", h.Sale.Complete).
		POST("/:id/cancel", admin, h.Sale.Cancel).
		GET("/:id/receipt", h.Sale.Receipt)

	staff.Group("dashboard", "/dashboard").
		GET("", h.Dashboard.Summary)

	staff.Group("catalog-settings", "/catalog-settings").
		GET("", h.Settings.Get).
		PUT("", admin, h.Settings.Update)

	r.Register(staff)

	store := NewDomainGroup("catalog", "/catalog/:slug")
	store.GET("", h.Storefront.Store).
		GET("/categories", h.Storefront.Categories).
		GET("/products", h.Storefront.Products).
		GET("/products/:id", h.Storefront.Product).
		POST("/auth/signup", throttle, h.Storefront.SignUp).
		POST("/auth/login", throttle, h.Storefront.Login)
	shopper := store.Group("shopper", "")
	shopper.Use(g.Shopper)
	shopper.GET("/me", h.Storefront.Me).
		GET("/me/orders", h.Storefront.MyOrders).
		POST("/checkout", h.Storefront.Checkout)
	r.Register(store)
}
