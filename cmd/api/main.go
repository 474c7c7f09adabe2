package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchandiser-backend/config"
	"merchandiser-backend/internal/delivery/http/middleware"
	v1 "merchandiser-backend/internal/delivery/http/v1"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/repository/memory"
	"merchandiser-backend/internal/repository/postgres"
	"merchandiser-backend/internal/usecase"
	"merchandiser-backend/pkg/audit"
	"merchandiser-backend/pkg/database"
	"merchandiser-backend/pkg/logger"
	"merchandiser-backend/pkg/redis"
	"merchandiser-backend/pkg/storage"
)

// @title           Merchandiser Catalog API
// @version         1.0
// @description     Merchandiser profiles, search, favorites and reviews.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting merchandiser backend", "port", cfg.Port, "storage", cfg.StorageDriver)

	auditLogger := audit.New("merchandiser-backend", cfg.Environment)
	audit.SetDefault(auditLogger)
	defer func() { _ = auditLogger.Sync() }()

	ctx := context.Background()
	healthChecks := map[string]usecase.HealthCheck{}

	// 3. Setup Stores
	var stores domain.MerchandiserStores
	var catalogs domain.Catalogs

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Log.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		stores, catalogs = store.Stores(), store.Catalogs()
	default:
		if cfg.RunMigrations {
			if err := database.RunMigrations(cfg.DBUrl); err != nil {
				logger.Log.Error("Failed to run migrations", "error", err)
				os.Exit(1)
			}
		}

		dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		stores, catalogs = postgres.NewStores(dbPool), postgres.NewCatalogs(dbPool)
		healthChecks["database"] = dbPool.Ping
	}

	// 4. Setup Redis (rate limiting falls back to memory without it)
	if err := redis.Initialize(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	} else {
		defer redis.Close()
		healthChecks["redis"] = redis.HealthCheck
	}

	// 5. Setup Asset Storage
	var signer domain.AssetURLSigner
	if cfg.AssetStorageConfigured() {
		storageCfg := storage.Config{
			Provider:        storage.Provider(cfg.S3Provider),
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3AssetBucket,
			Endpoint:        cfg.WasabiEndpoint,
			URLTTL:          cfg.PortraitURLTTL,
		}
		client, err := storage.NewS3Client(ctx, storageCfg)
		if err != nil {
			logger.Log.Warn("Asset storage unavailable, portraits keep stored URLs", "error", err)
		} else {
			signer = storage.NewURLSigner(client, storageCfg.Bucket, storageCfg.URLTTL)
			healthChecks["asset_storage"] = storage.BucketCheck(client, storageCfg.Bucket)
		}
	}

	// 6. Setup UseCases
	merchandiserUC := usecase.NewMerchandiserUsecase(stores, catalogs, signer)
	favoriteUC := usecase.NewFavoriteUsecase(stores.Merchandisers, stores.Akzente, stores.Favorites)
	reviewUC := usecase.NewReviewUsecase(stores.Merchandisers, stores.Reviews)
	healthUC := usecase.NewHealthUsecase(healthChecks)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		MerchandiserUC: merchandiserUC,
		FavoriteUC:     favoriteUC,
		ReviewUC:       reviewUC,
		HealthUC:       healthUC,
		Users:          stores.Users,
		Metrics:        middleware.NewMetrics(),
		Config:         cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
