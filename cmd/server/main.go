package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/pricing/docs"
	pricingapp "github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/infrastructure/cache"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/event"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/persistence"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/erp/pricing/internal/interfaces/http/handler"
	"github.com/erp/pricing/internal/interfaces/http/middleware"
	"github.com/erp/pricing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

//	@title			Pricing Engine API
//	@version		1.0
//	@description	Tier, price rule and promotion pricing for B2B pharmaceutical orders
//
//	@contact.name	API Support
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host			localhost:8080
//	@BasePath		/api/v1
func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewForEnvironment(cfg.App.Env, logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry providers. Each one is a no-op when its signal is disabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    serviceName,
			LoggerProvider: loggerProvider,
			Level:          telemetry.ParseLogLevel(cfg.Log.Level),
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore, zap.AddCaller())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting pricing engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("tracing", tracerProvider.IsEnabled()),
		zap.Bool("metrics", meterProvider.IsEnabled()),
	)

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if cfg.Database.Driver == config.DriverMySQL {
		dbTracing.DBSystem = "mysql"
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate SQLite database", zap.Error(err))
		}
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	promotionRepo := persistence.NewGormPromotionRepository(db.DB)
	ruleRepo := cache.NewCachedPriceRuleRepository(
		persistence.NewGormPriceRuleRepository(db.DB),
		cache.WithRuleCacheTTL(cfg.Pricing.RuleCacheTTL),
		cache.WithRuleCacheLogger(log),
	)

	usageFactory := cache.NewUsageStoreFactory(
		cfg.Pricing.UsageBackend,
		cfg.Redis,
		promotionRepo,
		persistence.NewGormUsageTracker(db.DB),
		cache.WithLogger(log),
	)
	usageStore, usageBackend, closeUsage, err := usageFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create promotion usage store", zap.Error(err))
	}
	defer func() {
		if err := closeUsage(); err != nil {
			log.Error("Failed to close promotion usage store", zap.Error(err))
		}
	}()

	publisher, closePublisher := event.NewUsagePublisher(cfg.Events, log)
	defer func() {
		if err := closePublisher(); err != nil {
			log.Error("Failed to close usage event publisher", zap.Error(err))
		}
	}()

	// Domain services
	tiers, err := tierTable(cfg.Pricing)
	if err != nil {
		log.Fatal("Invalid tier discount configuration", zap.Error(err))
	}
	hierarchy := pricing.NewCustomerHierarchyResolver(customerRepo, cfg.Pricing.HierarchyMaxDepth)
	validator := pricing.NewPromotionValidator(promotionRepo, usageStore, hierarchy)
	calculator := pricing.NewPriceCalculator(
		productRepo,
		customerRepo,
		ruleRepo,
		tiers,
		validator,
		pricing.WithAutoApplyPromotions(cfg.Pricing.AutoApplyPromotions),
		pricing.WithProductLoadConcurrency(cfg.Pricing.ProductLoadConcurrency),
	)

	pricingMetrics, err := telemetry.NewPricingMetrics(telemetry.PricingMetricsConfig{
		Meter:  meterProvider.Meter("pricing"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create pricing metrics", zap.Error(err))
	}

	pricingService := pricingapp.NewService(
		calculator,
		validator,
		customerRepo,
		usageStore,
		pricingapp.WithPublisher(publisher),
		pricingapp.WithMetrics(pricingMetrics),
		pricingapp.WithUsageBackend(usageBackend),
		pricingapp.WithHierarchy(hierarchy),
	)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = serviceName
	tracingCfg.Enabled = tracerProvider.IsEnabled()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.App.Env == "production"

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(tracingCfg))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
		Logger:        log,
	}))
	engine.Use(middleware.SecureWithConfig(securityCfg))
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler(db, usageBackend))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	pricingHandler := handler.NewPricingHandler(pricingService)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(pricingHandler.Routes())
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("usage_backend", usageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush telemetry after the last request has finished
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down logger provider: %v\n", err)
	}

	log.Info("Server exited gracefully")
}

// tierTable builds the tier discount table, falling back to the stock
// percentages when none are configured
func tierTable(cfg config.PricingConfig) (*pricing.TierDiscountTable, error) {
	rates, err := cfg.TierRates()
	if err != nil {
		return nil, err
	}
	if rates == nil {
		return pricing.DefaultTierDiscountTable(), nil
	}
	table := make(map[pricing.CustomerTier]decimal.Decimal, len(rates))
	for tier, rate := range rates {
		table[pricing.CustomerTier(tier)] = rate
	}
	return pricing.NewTierDiscountTable(table)
}

// healthHandler reports database reachability and the active usage backend
func healthHandler(db *persistence.Database, usageBackend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":        "unhealthy",
				"time":          time.Now().Format(time.RFC3339),
				"database":      "error",
				"usage_backend": usageBackend,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"time":          time.Now().Format(time.RFC3339),
			"database":      "ok",
			"usage_backend": usageBackend,
		})
	}
}
