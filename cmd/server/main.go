package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/marketsync/backend/internal/application/catalog"
	integrationapp "github.com/marketsync/backend/internal/application/integration"
	reportapp "github.com/marketsync/backend/internal/application/report"
	tradeapp "github.com/marketsync/backend/internal/application/trade"
	"github.com/marketsync/backend/internal/infrastructure/cache"
	"github.com/marketsync/backend/internal/infrastructure/config"
	"github.com/marketsync/backend/internal/infrastructure/ecommerce"
	"github.com/marketsync/backend/internal/infrastructure/event"
	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/infrastructure/persistence"
	"github.com/marketsync/backend/internal/infrastructure/supervisor"
	"github.com/marketsync/backend/internal/infrastructure/telemetry"
	"github.com/marketsync/backend/internal/interfaces/http/handler"
	"github.com/marketsync/backend/internal/interfaces/http/middleware"
	"github.com/marketsync/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			MarketSync API
//	@version		1.0
//	@description	Multi-channel order reconciliation: one canonical order store fed by Etsy, eBay and Depop,
//	@description	cross-channel delisting and seller analytics.

//	@host		localhost:8080
//	@BasePath	/api/v1

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap logger until the OTLP log core is available
	bootLog, err := newLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			bootLog.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	log := bootLog
	if providers.Enabled() {
		if log, err = newLogger(cfg, providers.ZapCore(logger.ParseLevel(cfg.Log.Level))); err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer logger.Sync(log)

	log.Info("Starting MarketSync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbPlugin := telemetry.NewGormPlugin(telemetry.GormConfig{
		Tracing:        cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:     cfg.Telemetry.DBLogFullSQL,
		SlowQueryThres: cfg.Telemetry.DBSlowQueryThresh,
		DBName:         cfg.Database.DBName,
	}, providers.Meter("marketsync/db"), log)
	if err := db.DB.Use(dbPlugin); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	defer func() { _ = dbPlugin.Close() }()
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	sellerRepo := persistence.NewGormSellerRepository(db.DB)
	listingRepo := persistence.NewGormListingRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	taskRepo := persistence.NewGormDelistTaskRepository(db.DB)
	analyticsRepo := persistence.NewGormAnalyticsRepository(db.DB)
	saleRecorder := persistence.NewGormSaleRecorder(db.DB)

	// Dedup claims
	claims, err := cache.NewClaimStoreFactory(cfg.Redis, cfg.Breaker,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx, cfg.Ingestion.ClaimBackend)
	if err != nil {
		log.Fatal("Failed to create claim store", zap.Error(err))
	}
	defer func() {
		if err := claims.Close(); err != nil {
			log.Error("Error closing claim store", zap.Error(err))
		}
	}()

	commerceMetrics, err := telemetry.NewCommerceMetrics(providers.Meter("marketsync/commerce"), taskRepo, log)
	if err != nil {
		log.Fatal("Failed to create commerce metrics", zap.Error(err))
	}
	defer commerceMetrics.Stop()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLogHandler(log))

	// Application services
	coordinator := integrationapp.NewDelistingCoordinator(listingRepo, productRepo, taskRepo,
		integrationapp.WithConcurrency(cfg.Ingestion.DelistConcurrency),
		integrationapp.WithDelistTimeout(cfg.Ingestion.DelistTimeout),
		integrationapp.WithDelistMetrics(commerceMetrics),
		integrationapp.WithCoordinatorLogger(log),
	)
	coordinator.SetEventPublisher(eventBus)

	ingestion := integrationapp.NewOrderIngestionService(
		ecommerce.NewDefaultRegistry(),
		orderRepo, listingRepo, productRepo, saleRecorder, coordinator,
		integrationapp.WithClaimStore(claims, cfg.Ingestion.ClaimTTL),
		integrationapp.WithIngestionMetrics(commerceMetrics),
		integrationapp.WithIngestionLogger(log),
	)
	ingestion.SetEventPublisher(eventBus)

	orderService := tradeapp.NewOrderService(orderRepo, log)
	orderService.SetEventPublisher(eventBus)

	productService := catalogapp.NewProductStatusService(productRepo, sellerRepo, coordinator, log)
	productService.SetEventPublisher(eventBus)

	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatal("Invalid analytics timezone", zap.String("timezone", cfg.Analytics.Timezone), zap.Error(err))
	}
	analyticsService := reportapp.NewAnalyticsService(analyticsRepo, sellerRepo,
		reportapp.WithLocation(loc),
		reportapp.WithQueryTimeout(cfg.Analytics.QueryTimeout),
		reportapp.WithAnalyticsLogger(log),
	)

	// HTTP
	engine, err := newEngine(cfg, log, providers)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	checks := []handler.HealthCheck{{Name: "database", Pinger: db, Critical: true}}
	if p, ok := claims.(handler.Pinger); ok {
		checks = append(checks, handler.HealthCheck{Name: "claim_store", Pinger: p})
	}

	productHandler := handler.NewProductHandler(coordinator, productService)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewHealthHandler(version, checks...).Routes()).
		Register(handler.NewOrderHandler(ingestion, orderService).Routes()).
		Register(productHandler.Routes(), productHandler.SellerRoutes()).
		Register(handler.NewAnalyticsHandler(analyticsService).Routes()).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Supervised services
	tree := supervisor.NewTree(log.Named("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(srv, cfg.HTTP.ShutdownTimeout, log))
	if cfg.DelistRetry.Enabled {
		tree.AddWorker(event.NewDelistRetryProcessor(taskRepo, coordinator, cfg.DelistRetry, log))
	}

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error("Supervisor stopped unexpectedly", zap.Error(err))
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, unstopped := range report {
			log.Warn("Service did not stop in time", zap.String("service", unstopped.Name))
		}
	}

	log.Info("Server exited gracefully")
}

func newLogger(cfg *config.Config, extra ...zapcore.Core) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, extra...)
}

// newEngine builds the gin engine with the global middleware chain
func newEngine(cfg *config.Config, log *zap.Logger, providers *telemetry.Providers) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	httpMetrics, err := middleware.HTTPMetrics(providers.Meter("marketsync/http"))
	if err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			Enabled:        cfg.Telemetry.Enabled,
			TracerProvider: otel.GetTracerProvider(),
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		httpMetrics,
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORS(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}
	return engine, nil
}
