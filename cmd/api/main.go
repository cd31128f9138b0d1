package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"showcase/api/internal/app"
	"showcase/api/internal/config"
	"showcase/api/internal/export"
	"showcase/api/internal/gitrepo"
	"showcase/api/internal/metrics"
	"showcase/api/internal/rendercache"
	"showcase/api/internal/search"
	"showcase/api/internal/storage"
	"showcase/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	gitService := gitrepo.New(cfg.ReposDir)
	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	var objects storage.ObjectStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		log.Printf("Using MinIO bucket %s for exports", cfg.MinioBucket)
		objects, err = storage.NewMinioStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
	} else {
		log.Printf("Using %s for exports", cfg.ExportsDir)
		objects, err = storage.NewLocalStorage(cfg.ExportsDir)
		if err != nil {
			log.Fatalf("failed to create exports dir: %v", err)
		}
	}
	exportService := export.NewService(objects)
	appMetrics := metrics.New()

	var service *app.Service
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for the render cache")
		renderCache, err := rendercache.NewRedisStore(cfg.RedisURL, cfg.RenderCacheTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer renderCache.Close()
		service = app.NewWithRenderCache(cfg, dataStore, renderCache, gitService, searchService, exportService, appMetrics)
	} else {
		log.Printf("Render cache disabled")
		service = app.New(cfg, dataStore, gitService, searchService, exportService, appMetrics)
	}
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Showcase API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
