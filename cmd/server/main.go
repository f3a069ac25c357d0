package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/wayfind/internal"
	"github.com/DukeRupert/wayfind/internal/handler"
	"github.com/DukeRupert/wayfind/internal/maps"
	"github.com/DukeRupert/wayfind/internal/metrics"
	"github.com/DukeRupert/wayfind/internal/middleware"
	"github.com/DukeRupert/wayfind/internal/prefs"
	"github.com/DukeRupert/wayfind/internal/repository"
	"github.com/DukeRupert/wayfind/internal/service"
	"github.com/DukeRupert/wayfind/internal/storage"
	"github.com/DukeRupert/wayfind/internal/version"
	"github.com/DukeRupert/wayfind/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Preset, cfg.LogLevel)
	logger.Info("Starting wayfind",
		"preset", cfg.Preset,
		"commit", version.CommitSHA,
	)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	queries := repository.New(db)

	// Initialize preference store
	var prefStore prefs.Store
	switch cfg.PrefsStore {
	case "redis":
		redisStore, err := prefs.NewRedisStore(ctx, prefs.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, prefs.CookieMaxAge*time.Second)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer redisStore.Close()
		prefStore = redisStore
		logger.Info("Preference store ready", "provider", "redis")
	default:
		prefStore = prefs.NewMemoryStore()
		logger.Info("Preference store ready", "provider", "memory")
	}

	// Initialize preview cache storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case storage.ProviderS3:
		store, err = storage.NewS3Storage(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			PublicURL:       cfg.S3PublicURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("s3 storage initialization failed: %w", err)
		}
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("local storage initialization failed: %w", err)
		}
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize template renderer
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		TemplatesDir: "web/templates",
		Logger:       logger,
		IsDev:        cfg.Preset == internal.PresetDevelopment,
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	// Initialize services
	locationService := service.NewLocationService(queries, logger)
	prefService := prefs.NewService(prefStore, logger, cfg.IsSecure())
	tileClient := maps.NewTileClient(cfg.TileServerURL, logger)
	composer := maps.NewComposer(tileClient, logger)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(cfg.Preset, logger)
	locationHandler := handler.NewLocationHandler(locationService, prefService, renderer, logger)
	preferenceHandler := handler.NewPreferenceHandler(prefService, logger)
	previewHandler := handler.NewPreviewHandler(locationService, composer, store, cfg.PreviewCacheMaxAge, logger)

	// Initialize middleware
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(cfg.IsSecure())
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	previewLimiter := middleware.NewRateLimiter(cfg.PreviewRateLimit, cfg.PreviewRateWindow, logger)
	previewLimitMw := middleware.NewRateLimitMiddleware(previewLimiter, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))

	// Locally stored preview files (development storage provider)
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	healthHandler.RegisterRoutes(mux)
	locationHandler.RegisterRoutes(mux)
	preferenceHandler.RegisterRoutes(mux)

	// Preview composition is expensive, so it sits behind a rate limit.
	previewMux := http.NewServeMux()
	previewHandler.RegisterRoutes(previewMux)
	mux.Handle("GET /maps/", previewLimitMw.Limit(previewMux))

	// Metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Home page
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		// Only handle exact root path
		if r.URL.Path != "/" {
			handler.NotFoundResponse(w, r, logger)
			return
		}
		renderer.RenderHTTP(w, "home", map[string]interface{}{
			"CurrentPath": r.URL.Path,
		})
	})

	// Outer middleware stack
	stack := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		metrics.Middleware,
	)

	// ==========================================================================
	// Start background worker
	// ==========================================================================

	var maintenance *worker.Worker
	if cfg.MaintenanceEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Interval = cfg.MaintenanceInterval

		maintenance, err = worker.New(workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		maintenance.Register(worker.NewPrunePreviewsTask(store, cfg.PreviewCacheMaxAge, logger))
		maintenance.Register(worker.NewStaleCalendarsTask(queries, 24*time.Hour, logger))
		maintenance.Start(ctx)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: stack(mux),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "preset", cfg.Preset)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if maintenance != nil {
		maintenance.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
