package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventoryapp "github.com/invtrack/backend/internal/application/inventory"
	tenancyapp "github.com/invtrack/backend/internal/application/tenancy"
	domtenancy "github.com/invtrack/backend/internal/domain/tenancy"
	"github.com/invtrack/backend/internal/infrastructure/cache"
	"github.com/invtrack/backend/internal/infrastructure/config"
	"github.com/invtrack/backend/internal/infrastructure/logger"
	"github.com/invtrack/backend/internal/infrastructure/persistence"
	"github.com/invtrack/backend/internal/infrastructure/sharding"
	"github.com/invtrack/backend/internal/interfaces/http/handler"
	"github.com/invtrack/backend/internal/interfaces/http/middleware"
	"github.com/invtrack/backend/internal/interfaces/http/router"
)

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

	log.Info("Starting inventory tracking backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Int("shards", cfg.Sharding.Count),
	)

	// Shard pools: the registry is built once here and passed down; there
	// is no ambient global connection state anywhere else.
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	registry := sharding.NewRegistry(context.Background(), &cfg.Sharding, gormLog, log)
	defer func() {
		if err := registry.Shutdown(); err != nil {
			log.Error("Error closing shard pools", zap.Error(err))
		}
	}()

	// License evaluation cache: Redis when configured, in-process otherwise.
	var evalCache domtenancy.EvaluationCache
	if cfg.Redis.Host != "" {
		redisCache, err := cache.NewRedisLicenseCache(cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect license cache", zap.Error(err))
		}
		evalCache = redisCache
		log.Info("License cache using Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		evalCache = cache.NewInMemoryLicenseCache()
		log.Info("License cache using in-process store")
	}
	defer func() {
		if err := evalCache.Close(); err != nil {
			log.Error("Error closing license cache", zap.Error(err))
		}
	}()

	// Repositories and provisioner
	tenantRepo := persistence.NewGormTenantRepository()
	licenseRepo := persistence.NewGormLicenseRepository()
	trackingRepo := persistence.NewTrackingRepository()
	anomalyRepo := persistence.NewAnomalyRepository()
	provisioner := persistence.NewNamespaceProvisioner(log)

	// Application services
	tenantService := tenancyapp.NewTenantService(
		registry, tenantRepo, licenseRepo, evalCache, cfg.Redis.LicenseCacheTTL, log)
	trackingService := inventoryapp.NewTrackingService(
		registry, tenantService, provisioner, trackingRepo, anomalyRepo, log)

	// HTTP handlers
	tenantHandler := handler.NewTenantHandler(tenantService)
	inventoryHandler := handler.NewInventoryHandler(trackingService)
	systemHandler := handler.NewSystemHandler(registry)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.TenantRoutes(tenantHandler, inventoryHandler))
	r.Setup()

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
