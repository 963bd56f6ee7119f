package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/cache"
	"github.com/camden-git/portfoliobackend/config"
	"github.com/camden-git/portfoliobackend/database"
	"github.com/camden-git/portfoliobackend/handlers"
	"github.com/camden-git/portfoliobackend/ingest"
	"github.com/camden-git/portfoliobackend/media"
	"github.com/camden-git/portfoliobackend/realtime"
	"github.com/camden-git/portfoliobackend/repository"
	"github.com/camden-git/portfoliobackend/services"
	"github.com/camden-git/portfoliobackend/workers"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.InitGormDB(cfg.DBDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.AutoMigrateModels(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	store, err := media.OpenStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize attachment store", zap.Error(err))
	}

	policies, err := media.LoadPolicies(cfg.MediaPolicyFile)
	if err != nil {
		logger.Fatal("failed to load compression policies", zap.Error(err))
	}
	hook := ingest.NewHook(
		media.NewImagingCodec(),
		policies,
		ingest.CodecErrorPolicy(cfg.CodecErrorPolicy),
		ingest.MissingPriorPolicy(cfg.MissingPriorPolicy),
		logger,
	)

	var responseCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.Connect(cfg.RedisURL, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
		if err != nil {
			logger.Warn("redis unavailable, public cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			responseCache = rc
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	deps := services.Deps{DB: db, Store: store, Hook: hook, Cache: responseCache, Events: hub, Log: logger}
	categories := services.NewCategoryService(deps)
	albums := services.NewAlbumService(deps)

	metadataWorker := workers.NewMetadataWorker(repository.NewPhotoRepository(db), store, hub,
		cfg.MetadataQueueSize, cfg.NumMetadataWorkers, logger)

	h := &handlers.Handlers{
		Public: &handlers.PublicHandler{Categories: categories, Albums: albums, Log: logger},
		Categories: &handlers.AdminCategoryHandler{
			Categories:     categories,
			Covers:         services.NewCoverService(deps),
			MaxUploadBytes: cfg.MaxUploadBytes,
			Log:            logger,
		},
		Albums: &handlers.AdminAlbumHandler{Albums: albums, MaxUploadBytes: cfg.MaxUploadBytes, Log: logger},
		Photos: &handlers.AdminPhotoHandler{
			Photos:         services.NewPhotoService(deps),
			Metadata:       metadataWorker,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Log:            logger,
		},
		Cache:  responseCache,
		Events: hub.ServeWS,
	}
	if local, ok := store.(*media.LocalStorage); ok {
		h.Assets = handlers.AssetServer(local, logger)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)
	h.Mount(r)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.StorageBackend),
			zap.String("db_driver", cfg.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	metadataWorker.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
