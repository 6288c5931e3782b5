// Package main is the entrypoint for the HaulDesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hauldesk/hauldesk/internal/api"
	"github.com/hauldesk/hauldesk/internal/api/handler"
	mw "github.com/hauldesk/hauldesk/internal/api/middleware"
	"github.com/hauldesk/hauldesk/internal/cache"
	"github.com/hauldesk/hauldesk/internal/config"
	"github.com/hauldesk/hauldesk/internal/jobs"
	"github.com/hauldesk/hauldesk/internal/notify"
	"github.com/hauldesk/hauldesk/internal/storage"
	"github.com/hauldesk/hauldesk/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store and collaborator clients. Storage and notify are
	// optional: leaving them unconfigured disables uploads and driver
	// notifications rather than failing startup.
	pgStore := store.NewPostgresStore(pool)

	var uploader jobs.Uploader
	if cfg.Storage.BaseURL != "" {
		uploader = storage.NewHTTPClient(cfg.Storage.BaseURL, cfg.Storage.Bucket, cfg.Storage.Token, cfg.Storage.Timeout)
		slog.Info("storage client initialized", "base_url", cfg.Storage.BaseURL, "bucket", cfg.Storage.Bucket)
	} else {
		slog.Warn("STORAGE_BASE_URL not set, document uploads disabled")
	}

	var notifier jobs.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookClient(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
		slog.Info("notify client initialized")
	} else {
		slog.Warn("NOTIFY_WEBHOOK_URL not set, driver notifications disabled")
	}

	svc := jobs.NewService(pgStore, notifier, uploader)

	// 6. Build router with dependencies
	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: handler.NewHealthHandler(pgStore, redisCache),

		CreateJobHandler:     handler.NewCreateJobHandler(svc),
		ListJobsHandler:      handler.NewListJobsHandler(svc),
		GetJobHandler:        handler.NewGetJobHandler(svc),
		UpdateJobHandler:     handler.NewUpdateJobHandler(svc, redisCache),
		ProgressHandler:      handler.NewProgressHandler(svc, redisCache),
		AddNoteHandler:       handler.NewAddNoteHandler(svc),
		CancelJobHandler:     handler.NewCancelJobHandler(svc, redisCache),
		AssignDriverHandler:  handler.NewAssignDriverHandler(svc, redisCache),
		NextActionHandler:    handler.NewNextActionHandler(svc, redisCache),
		TimelineHandler:      handler.NewTimelineHandler(svc),
		LogVisibilityHandler: handler.NewLogVisibilityHandler(svc),
		UploadDocHandler:     handler.NewUploadDocumentHandler(svc),
		ListDocsHandler:      handler.NewListDocumentsHandler(svc),
		ListDriversHandler:   handler.NewListDriversHandler(pgStore),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
