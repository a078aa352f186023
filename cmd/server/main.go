package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/pharmacy/backend/internal/application/catalog"
	customerapp "github.com/pharmacy/backend/internal/application/customer"
	identityapp "github.com/pharmacy/backend/internal/application/identity"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	salesapp "github.com/pharmacy/backend/internal/application/sales"
	"github.com/pharmacy/backend/internal/infrastructure/auth"
	"github.com/pharmacy/backend/internal/infrastructure/cache"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/pharmacy/backend/internal/infrastructure/event"
	"github.com/pharmacy/backend/internal/infrastructure/idgen"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/infrastructure/persistence"
	"github.com/pharmacy/backend/internal/infrastructure/scheduler"
	"github.com/pharmacy/backend/internal/infrastructure/strategy"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"github.com/pharmacy/backend/internal/interfaces/http/handler"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"github.com/pharmacy/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	otelCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}

	logProvider, err := telemetry.NewLoggerProvider(ctx, otelCfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := telemetry.Bridge(baseLog, logProvider, zapcore.InfoLevel)
	zap.ReplaceGlobals(log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pharmacy backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, otelCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter("pharmacy-backend")

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.DBName = cfg.Database.DBName
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access connection pool", zap.Error(err))
	}
	dbMetrics, err := telemetry.NewDBMetrics(meter, sqlDB, dbTracing.SlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to create database metrics", zap.Error(err))
	}
	if err := dbMetrics.Register(db.DB); err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	// Identity
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)

	// Catalog, inventory, customers
	medicineService := catalogapp.NewMedicineService(medicineRepo)
	inventoryService := inventoryapp.NewInventoryService(batchRepo, medicineRepo, log)
	customerService := customerapp.NewCustomerService(customerRepo, invoiceRepo)

	// Sales
	registry, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to register allocation strategies", zap.Error(err))
	}
	allocation, err := registry.GetBatchStrategy(cfg.Sales.AllocationStrategy)
	if err != nil {
		log.Fatal("Unknown allocation strategy", zap.Error(err), zap.Strings("available", registry.ListBatchStrategies()))
	}
	invoiceNumbers, err := idgen.NewInvoiceNumbers(1)
	if err != nil {
		log.Fatal("Failed to create invoice number generator", zap.Error(err))
	}
	settlement := salesapp.NewSettlementService(
		persistence.NewGormTransactionScope(db.DB),
		salesapp.NewAllocator(allocation, cfg.Sales.SkipExpiredBatches),
		invoiceNumbers,
		idgen.NewCustomerCodes(),
		salesapp.SettlementConfig{
			MaxAttempts:    cfg.Sales.MaxAttempts,
			RetryBackoff:   cfg.Sales.RetryBackoff,
			IdempotencyTTL: cfg.Sales.IdempotencyTTL,
			ReservationTTL: cfg.Sales.ReservationTTL,
		},
		log,
	)
	salesQuery := salesapp.NewQueryService(invoiceRepo, customerRepo)

	salesMetrics, err := telemetry.NewSalesMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create sales metrics", zap.Error(err))
	}
	settlement.SetMetrics(salesMetrics)

	replayStore, err := cache.NewReplayStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if closer, ok := replayStore.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()
	settlement.SetReplayStore(replayStore, invoiceRepo)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Sales.LowStockAlertEnable {
		monitor := inventoryapp.NewLowStockMonitor(batchRepo, log).
			WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log))
		eventBus.Subscribe(monitor, monitor.EventTypes()...)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	settlement.SetEventPublisher(eventBus)

	// Scheduled stock checks
	var stockCheck *scheduler.StockCheckTrigger
	if cfg.Sales.StockCheckEnabled {
		schedule, err := scheduler.ParseSchedule(cfg.Sales.StockCheckSchedule)
		if err != nil {
			log.Fatal("Invalid stock check schedule", zap.Error(err))
		}
		checkCfg := scheduler.DefaultStockCheckConfig()
		checkCfg.Spec = cfg.Sales.StockCheckSchedule
		checkCfg.Schedule = schedule
		checkCfg.ExpiryWindow = cfg.Sales.ExpiryAlertDays
		stockCheck, err = scheduler.NewStockCheckTrigger(checkCfg, inventoryService,
			inventoryapp.NewLoggingStockAlertNotifier(log), log)
		if err != nil {
			log.Fatal("Failed to create stock check trigger", zap.Error(err))
		}
		if err := stockCheck.Start(ctx); err != nil {
			log.Fatal("Failed to start stock check trigger", zap.Error(err))
		}
	}

	// HTTP
	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
	}

	production := cfg.App.IsProduction()
	base := handler.BaseHandler{Production: production}
	engine, err := router.NewEngine(router.Options{
		ServiceName:      cfg.Telemetry.ServiceName,
		Production:       production,
		TracingEnabled:   tracerProvider.IsEnabled(),
		Meter:            meter,
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		RateLimiter:      limiter,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		Logger:           log,
	}, jwtService, router.Handlers{
		Health: handler.NewHealthHandler(base, telemetry.ServiceVersion,
			handler.HealthCheck{Name: "database", Check: db.Ping},
		),
		Auth:      handler.NewAuthHandler(base, authService),
		Medicine:  handler.NewMedicineHandler(base, medicineService, inventoryService),
		Inventory: handler.NewInventoryHandler(base, inventoryService),
		Sales:     handler.NewSalesHandler(base, settlement, salesQuery),
		Customer:  handler.NewCustomerHandler(base, customerService),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if stockCheck != nil {
		if err := stockCheck.Stop(shutdownCtx); err != nil {
			log.Warn("Stock check did not stop cleanly", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
