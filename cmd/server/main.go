package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/storehub/backend/docs"
	catalogapp "github.com/storehub/backend/internal/application/catalog"
	identityapp "github.com/storehub/backend/internal/application/identity"
	inventoryapp "github.com/storehub/backend/internal/application/inventory"
	partnerapp "github.com/storehub/backend/internal/application/partner"
	reportapp "github.com/storehub/backend/internal/application/report"
	storefrontapp "github.com/storehub/backend/internal/application/storefront"
	tradeapp "github.com/storehub/backend/internal/application/trade"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/infrastructure/auth"
	"github.com/storehub/backend/internal/infrastructure/cache"
	"github.com/storehub/backend/internal/infrastructure/config"
	"github.com/storehub/backend/internal/infrastructure/event"
	"github.com/storehub/backend/internal/infrastructure/logger"
	paymentinfra "github.com/storehub/backend/internal/infrastructure/payment"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/internal/infrastructure/printing"
	"github.com/storehub/backend/internal/infrastructure/scheduler"
	"github.com/storehub/backend/internal/infrastructure/storage"
	"github.com/storehub/backend/internal/infrastructure/telemetry"
	"github.com/storehub/backend/internal/interfaces/http/handler"
	"github.com/storehub/backend/internal/interfaces/http/middleware"
	"github.com/storehub/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			StoreHub API
//	@version		1.0
//	@description	Multi-tenant back office and storefront API: catalog, stock, sales, checkout and payment webhooks.

//	@contact.name	StoreHub Support
//	@contact.email	support@storehub.example.com

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Staff access token. Format: "Bearer {token}"

//	@securityDefinitions.apikey	CatalogAuth
//	@in							header
//	@name						Authorization
//	@description				Storefront customer token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog := logger.New(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := logger.New(logCfg, logger.WithCore(providers.ZapCore(logger.ParseLevel(cfg.Log.Level))))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting StoreHub",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.Bool("tracing", providers.TracingEnabled()),
		zap.Bool("metrics", providers.MetricsEnabled()),
	)

	profiler, err := telemetry.StartProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Running() && providers.TracingEnabled() {
		providers.EnableSpanProfiles()
	}
	meter := providers.Meter(telemetry.TracerName)

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	dbMetrics, err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, meter, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	// Cache: Redis when enabled, in-process otherwise
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	caches := cache.NewFactory(redisClient, cache.WithLogger(log))
	resolutionCache, listenInvalidations := caches.ResolutionCache(cfg.Storefront.ResolverCacheTTL)

	// Repositories
	repos := persistence.NewRepositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	checkoutRepo := persistence.NewGormCheckoutRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(inventoryapp.NewStockLowHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log)).
		WithGauge(productRepo, businessMetrics))
	eventBus.Subscribe(tradeapp.NewSaleMetricsHandler(businessMetrics))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Payment gateways
	var (
		checkoutGateways []payment.CheckoutGateway
		webhookDeps      = storefrontapp.WebhookDeps{
			Organizations: repos.Organizations(),
			Customers:     repos.Customers(),
			Checkouts:     checkoutRepo,
			Idempotency:   caches.IdempotencyStore(),
			Metrics:       businessMetrics,
			DedupTTL:      storefrontapp.DefaultDedupTTL,
			Logger:        log,
		}
	)
	if cfg.Stripe.Enabled {
		stripeGateway, err := paymentinfra.NewStripeGateway(cfg.Stripe, log,
			paymentinfra.WithStripeSessionTTL(cfg.Storefront.CheckoutTTL))
		if err != nil {
			log.Fatal("Failed to configure Stripe", zap.Error(err))
		}
		checkoutGateways = append(checkoutGateways, stripeGateway)
		webhookDeps.Stripe = stripeGateway
	}
	if cfg.Asaas.Enabled {
		asaasGateway, err := paymentinfra.NewAsaasGateway(cfg.Asaas, log)
		if err != nil {
			log.Fatal("Failed to configure Asaas", zap.Error(err))
		}
		checkoutGateways = append(checkoutGateways, asaasGateway)
		webhookDeps.Asaas = asaasGateway
	}
	gateways := storefrontapp.NewGateways(checkoutGateways...)

	// Product images
	var images catalog.ImageStorage = storage.DisabledImageStorage{}
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ImageStorage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to configure image storage", zap.Error(err))
		}
		images = s3
	}

	// Receipts
	var pdf printing.PDFRenderer
	if cfg.Printing.Enabled {
		chrome, err := printing.NewChromedpRenderer(printing.ChromedpConfig{
			RemoteURL: cfg.Printing.ChromeURL,
			Timeout:   cfg.Printing.PDFTimeout,
			NoSandbox: cfg.Printing.NoSandbox,
		}, log)
		if err != nil {
			log.Fatal("Failed to configure PDF renderer", zap.Error(err))
		}
		pdf = chrome
	}
	receipts, err := printing.NewReceiptPrinter(printing.NewMoneyFormatter(cfg.Printing.Locale, cfg.Printing.Currency), pdf)
	if err != nil {
		log.Fatal("Failed to build receipt printer", zap.Error(err))
	}

	// JWT
	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	authService := identityapp.NewAuthService(txScope, repos.Organizations(), repos.Users(), repos.Members(),
		jwtService, caches.TokenBlacklist(), eventBus, log, identityapp.WithReservedSlugs(cfg.Storefront.ReservedSubdomains))
	organizationService := identityapp.NewOrganizationService(repos.Organizations(), repos.Users(), repos.Members(), log)
	categoryService := catalogapp.NewCategoryService(repos.Categories(), log)
	productService := catalogapp.NewProductService(txScope, productRepo, repos.Categories(), images, eventBus, log)
	customerService := partnerapp.NewCustomerService(repos.Customers(), log)
	inventoryService := inventoryapp.NewInventoryService(txScope, repos.StockMovements(), productRepo, eventBus, log)
	saleService := tradeapp.NewSaleService(txScope, repos.Sales(), repos.Customers(), repos.Organizations(), receipts, eventBus, log)
	dashboardService := reportapp.NewDashboardService(dashboardRepo, productRepo, repos.Customers(), log)

	resolver := storefrontapp.NewResolver(repos.Organizations(), repos.CatalogSettings(), resolutionCache,
		cfg.Storefront.ReservedSubdomains, cfg.Storefront.ResolverCacheTTL, log)
	settingsService := storefrontapp.NewSettingsService(repos.CatalogSettings(), repos.Organizations(), gateways, resolver, log)
	catalogService := storefrontapp.NewCatalogService(repos.Organizations(), repos.CatalogSettings(), repos.Categories(),
		productRepo, images, gateways)
	accountService := storefrontapp.NewAccountService(txScope, repos.Organizations(), repos.CatalogSettings(),
		repos.CatalogUsers(), repos.Customers(), saleService, jwtService, log)
	checkoutService := storefrontapp.NewCheckoutService(repos.Organizations(), repos.CatalogSettings(), repos.Customers(),
		productRepo, checkoutRepo, gateways, businessMetrics, storefrontapp.CheckoutOptions{
			ReturnURL: cfg.Storefront.PublicURL,
			TTL:       cfg.Storefront.CheckoutTTL,
		}, log)
	webhookDeps.Sales = saleService
	webhookService := storefrontapp.NewWebhookService(webhookDeps)

	// Scheduler
	jobs := scheduler.New(log, scheduler.WithJobTimeout(cfg.Scheduler.JobTimeout))
	if cfg.Scheduler.Enabled {
		for _, job := range []scheduler.Job{
			scheduler.ExpireCheckoutsJob(cfg.Scheduler.ExpireCheckoutsSpec, checkoutService),
			scheduler.LowStockMetricsJob(cfg.Scheduler.LowStockMetricsSpec, productRepo, businessMetrics),
		} {
			if err := jobs.Register(job); err != nil {
				log.Fatal("Failed to register job", zap.String("job", job.Name), zap.Error(err))
			}
		}
		jobs.Start(ctx)
	}

	go func() {
		if err := listenInvalidations(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Resolution cache invalidation listener stopped", zap.Error(err))
		}
	}()

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Middleware order:
	// 1. RequestID  2. Logger  3. Recovery  4. Tracing/Metrics/Profiling
	// 5. CORS  6. Security headers  7. BodyLimit  8. RateLimit
	// The storefront subdomain rewrite wraps the engine, ahead of routing.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.TracingEnabled(),
	})...)
	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = profiler.Running()
	engine.Use(middleware.Profiling(profiling))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var limiters []*middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		limiters = append(limiters, limiter)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	credentialsLimiter := middleware.NewRateLimiter(10, time.Minute)
	limiters = append(limiters, credentialsLimiter)

	middleware.SetupValidator()

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	router.RegisterAPI(r, router.Handlers{
		System: handler.NewSystemHandler(version, map[string]handler.HealthCheck{
			"database": db.Ping,
		}),
		Auth:         handler.NewAuthHandler(authService),
		Organization: handler.NewOrganizationHandler(organizationService),
		Category:     handler.NewCategoryHandler(categoryService),
		Product:      handler.NewProductHandler(productService),
		Customer:     handler.NewCustomerHandler(customerService),
		Inventory:    handler.NewInventoryHandler(inventoryService),
		Sale:         handler.NewSaleHandler(saleService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		Settings:     handler.NewCatalogSettingsHandler(settingsService),
		Storefront:   handler.NewStorefrontHandler(catalogService, accountService, checkoutService),
		Webhook:      handler.NewWebhookHandler(webhookService),
	}, router.Guards{
		Staff: middleware.JWTAuth(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Checker:    authService,
			Logger:     log,
		}),
		Shopper: middleware.CatalogAuth(jwtService, log),
		Credentials: middleware.RateLimitByKey(credentialsLimiter, func(c *gin.Context) string {
			return c.ClientIP() + " " + c.FullPath()
		}),
	})
	r.Setup()
	log.Debug("Routes registered", zap.Strings("routes", r.Routes()))

	root := middleware.SubdomainHandler(engine, middleware.SubdomainConfig{
		BaseDomain:    cfg.Storefront.BaseDomain,
		CatalogPrefix: r.APIPrefix() + "/catalog",
		Resolver:      resolver,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        root,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	for _, l := range limiters {
		l.Stop()
	}
	if err := receipts.Close(); err != nil {
		log.Warn("Failed to close receipt printer", zap.Error(err))
	}
	if err := errors.Join(businessMetrics.Close(), dbMetrics.Close()); err != nil {
		log.Warn("Failed to unregister metrics", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := db.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
