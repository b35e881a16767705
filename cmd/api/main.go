package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/01moynul/itemcatalog-golang/internal/auth"
	"github.com/01moynul/itemcatalog-golang/internal/config"
	"github.com/01moynul/itemcatalog-golang/internal/database"
	"github.com/01moynul/itemcatalog-golang/internal/handlers"
	"github.com/01moynul/itemcatalog-golang/internal/media"
	"github.com/01moynul/itemcatalog-golang/internal/middleware"
	"github.com/01moynul/itemcatalog-golang/internal/routes"
	"github.com/01moynul/itemcatalog-golang/internal/session"
	"github.com/01moynul/itemcatalog-golang/internal/store"
)

func main() {
	// 0. --- Load Configuration (.env, config.yaml, CATALOG_*) ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)
	if config.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. --- Database Connection & Migrations ---
	db, err := database.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	applied, err := database.Migrate(db, cfg.Database.Driver)
	if err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migrations completed", "applied", applied)

	// 2. --- Auth: tokens, guard, optional Google sign-in ---
	tokens := auth.NewTokenService(cfg.Auth.SigningSecret())
	guard := auth.NewGuard(tokens, cfg.Auth.TokenTTL)

	google, err := auth.LoadGoogleBridge(cfg.OAuth.ClientSecretFile, auth.GoogleOptions{
		Timeout:     cfg.OAuth.Timeout,
		APIEndpoint: cfg.OAuth.APIEndpoint,
		RevokeURL:   cfg.OAuth.RevokeURL,
	})
	if err != nil {
		logger.Warn("Google sign-in disabled", "file", cfg.OAuth.ClientSecretFile, "error", err)
		google = nil
	}

	// 3. --- Metrics & Rate Limiting ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(registry)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, metrics)
	stop := make(chan struct{})
	go limiter.Run(stop)

	// --- Application Setup ---
	app := &handlers.Handlers{
		Store:   store.New(db),
		Tokens:  tokens,
		Guard:   guard,
		Google:  google,
		Uploads: media.NewUploader(cfg.Uploads.Dir),
		Title:   cfg.Server.Title,
		Logger:  logger,
	}

	handler, err := routes.NewHandler(app, routes.Options{
		Logger:         logger,
		Sessions:       session.NewStore(cfg.Auth.SessionSecret(), cfg.Auth.CookieSecure),
		Metrics:        metrics,
		Gatherer:       registry,
		Limiter:        limiter,
		UploadsDir:     cfg.Uploads.Dir,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		CSRFKey:        cfg.Auth.CSRFSecret(),
		SecureCookies:  cfg.Auth.CookieSecure,
	})
	if err != nil {
		logger.Error("Failed to build router", "error", err)
		os.Exit(1)
	}

	// 4. --- Start Server with Graceful Shutdown ---
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Catalog server starting", "addr", server.Addr, "google_signin", google != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("Shutting down server gracefully...")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		return
	}
	logger.Info("Server exited gracefully.")
}
