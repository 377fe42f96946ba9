package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	eventapp "github.com/openledger/backend/internal/application/event"
	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/infrastructure/auth"
	"github.com/openledger/backend/internal/infrastructure/cache"
	"github.com/openledger/backend/internal/infrastructure/config"
	"github.com/openledger/backend/internal/infrastructure/event"
	"github.com/openledger/backend/internal/infrastructure/logger"
	"github.com/openledger/backend/internal/infrastructure/persistence"
	"github.com/openledger/backend/internal/infrastructure/telemetry"
	"github.com/openledger/backend/internal/interfaces/http/handler"
	"github.com/openledger/backend/internal/interfaces/http/middleware"
	"github.com/openledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/openledger/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			OpenLedger API
//	@version		1.0
//	@description	Multi-tenant general ledger posting and financial control engine

//	@contact.name	API Support
//	@contact.url	https://github.com/openledger/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OpenLedger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry providers (no-ops when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize database connection with zap-backed GORM logger
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database query tracing and metrics when telemetry is enabled
	if cfg.Telemetry.Enabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
	}

	// Initialize repositories
	journalRepo := persistence.NewGormJournalRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	dimensionRepo := persistence.NewGormDimensionRepository(db.DB)
	periodRepo := persistence.NewGormPeriodRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetRepository(db.DB)
	openingBalanceRepo := persistence.NewGormOpeningBalanceRepository(db.DB)
	sequenceAllocator := persistence.NewGormSequenceAllocator(db.DB)
	auditSink := persistence.NewGormAuditSink(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Outbox publisher saves events in the same transaction as the aggregate
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	eventPublisher := persistence.NewTransactionalOutboxPublisher(db.DB, outboxPublisher)

	// Domain services for posting-window resolution and budget control
	periodResolver := ledger.NewPeriodResolver(periodRepo)
	budgetCalculator := ledger.NewBudgetImpactCalculator(accountRepo, budgetRepo, journalRepo, periodResolver)

	// Initialize application services
	journalService := ledgerapp.NewJournalService(
		journalRepo,
		accountRepo,
		dimensionRepo,
		periodResolver,
		budgetCalculator,
		sequenceAllocator,
		auditSink,
		txManager,
		eventPublisher,
		log,
	)
	periodService := ledgerapp.NewPeriodService(periodRepo, journalRepo, openingBalanceRepo, auditSink, txManager, log)
	reportingService := ledgerapp.NewReportingService(journalRepo, accountRepo, log)
	importService := ledgerapp.NewOpeningBalanceImportService(periodService, accountRepo, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Outbox processor reads persisted events and publishes them to the bus
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	}

	// Business metrics with periodic approval/period backlog collection
	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:          meterProvider.Meter("openledger.business"),
			Logger:         log,
			LedgerProvider: telemetry.NewGormLedgerMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			tenantProvider := telemetry.NewGormTenantProvider(db.DB)
			businessMetrics.StartPeriodicCollection(context.Background(), tenantProvider, 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// JWT verification with Redis-backed token revocation; fall back to the
	// in-memory blacklist when Redis is unreachable
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable for token blacklist, using in-memory fallback", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
	}

	// Permission grants held outside the token share the blacklist's Redis
	// client when it is available
	var permissionChecker ledger.PermissionChecker
	if redisBlacklist != nil {
		permissionChecker = auth.NewRedisPermissionGrants(redisBlacklist.GetClient())
	} else {
		permissionChecker = auth.NewInMemoryPermissionGrants()
	}

	// Idempotency store for replay protection on mutating routes
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize HTTP handlers
	journalHandler := handler.NewJournalHandler(journalService)
	periodHandler := handler.NewPeriodHandler(periodService)
	reportHandler := handler.NewReportHandler(reportingService)
	importHandler := handler.NewOpeningBalanceImportHandler(importService)
	defer importHandler.Stop()
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics - Telemetry (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("openledger.http"), true))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	swaggerCfg := middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(swaggerCfg, middleware.JWTAuthMiddleware(jwtService)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Tenant resolution: JWT claim first, X-Tenant-ID header as fallback
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths,
		"/api/v1/ping",
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Route authorization: token permissions plus the external grant store
	permissions := middleware.PermissionConfig{Checker: permissionChecker, Logger: log}
	requires := func(code string) gin.HandlerFunc {
		return middleware.RequirePermissionWithConfig(code, permissions)
	}

	// Replay protection on mutating ledger routes
	idempotency := middleware.Idempotency(middleware.DefaultIdempotencyConfig(idempotencyStore))

	// Ledger domain (journal entries and their lifecycle)
	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.Use(idempotency)
	ledgerRoutes.POST("/journals", requires("journal:create"), journalHandler.Create)
	ledgerRoutes.GET("/journals", requires("journal:read"), journalHandler.List)
	ledgerRoutes.GET("/journals/:id", requires("journal:read"), journalHandler.Get)
	ledgerRoutes.PUT("/journals/:id", requires("journal:update"), journalHandler.Update)
	ledgerRoutes.POST("/journals/:id/submit", requires("journal:submit"), journalHandler.Submit)
	ledgerRoutes.POST("/journals/:id/review", requires("journal:review"), journalHandler.Review)
	ledgerRoutes.POST("/journals/:id/reject", requires("journal:review"), journalHandler.Reject)
	ledgerRoutes.POST("/journals/:id/return", requires("journal:post"), journalHandler.ReturnToReview)
	ledgerRoutes.POST("/journals/:id/post", requires("journal:post"), journalHandler.Post)
	ledgerRoutes.POST("/journals/:id/park", requires("journal:post"), journalHandler.Park)
	ledgerRoutes.POST("/journals/:id/reverse", requires("journal:reverse"), journalHandler.Reverse)

	// Period domain (accounting periods, close checklist, opening balances)
	periodRoutes := router.NewDomainGroup("period", "/periods")
	periodRoutes.Use(idempotency)
	periodRoutes.POST("", requires("period:manage"), periodHandler.Create)
	periodRoutes.GET("", requires("period:read"), periodHandler.List)
	periodRoutes.GET("/:id", requires("period:read"), periodHandler.Get)
	periodRoutes.POST("/:id/checklist", requires("period:manage"), periodHandler.AddChecklistItem)
	periodRoutes.POST("/:id/checklist/:code/complete", requires("period:manage"), periodHandler.CompleteChecklistItem)
	periodRoutes.POST("/:id/close", requires("period:close"), periodHandler.Close)
	periodRoutes.POST("/:id/soft-close", requires("period:close"), periodHandler.SoftClose)
	periodRoutes.POST("/:id/reopen", requires("period:close"), periodHandler.Reopen)
	periodRoutes.GET("/:id/opening-balances", requires("period:read"), periodHandler.GetOpeningBalances)
	periodRoutes.PUT("/:id/opening-balances", requires("period:manage"), periodHandler.UpsertOpeningBalances)
	periodRoutes.POST("/:id/opening-balances/post", requires("period:close"), periodHandler.PostOpeningBalances)

	// Report domain
	reportRoutes := router.NewDomainGroup("report", "/reports")
	reportRoutes.Use(requires("report:read"))
	reportRoutes.GET("/trial-balance", reportHandler.TrialBalance)
	reportRoutes.GET("/ledger/:account_id", reportHandler.Ledger)

	// Import domain (CSV opening balance staging)
	importRoutes := router.NewDomainGroup("import", "/import")
	importRoutes.Use(requires("import:write"))
	importRoutes.POST("/opening-balances/validate", importHandler.Validate)
	importRoutes.POST("/opening-balances", importHandler.Import)

	// System domain (info, ping, outbox administration)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/stats", requires("outbox:admin"), outboxHandler.GetStats)
	systemRoutes.GET("/outbox/dead-letter", requires("outbox:admin"), outboxHandler.GetDeadLetterEntries)
	systemRoutes.POST("/outbox/dead-letter/retry-all", requires("outbox:admin"), outboxHandler.RetryAllDeadEntries)
	systemRoutes.GET("/outbox/entries/:id", requires("outbox:admin"), outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/entries/:id/retry", requires("outbox:admin"), outboxHandler.RetryDeadEntry)

	// Register all domain groups
	r.Register(ledgerRoutes).
		Register(periodRoutes).
		Register(reportRoutes).
		Register(importRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
