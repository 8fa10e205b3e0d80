// ChronoNote - historical timeline study server
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

	"github.com/ashureev/chrononote/internal/api"
	"github.com/ashureev/chrononote/internal/config"
	"github.com/ashureev/chrononote/internal/extract"
	"github.com/ashureev/chrononote/internal/identity"
	"github.com/ashureev/chrononote/internal/middleware"
	"github.com/ashureev/chrononote/internal/quiz"
	"github.com/ashureev/chrononote/internal/store"
	"github.com/ashureev/chrononote/internal/timeline"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "ai_provider", cfg.AI.Provider)

	// Initialize dependencies.
	sessions, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := sessions.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	// The extractor is optional. Without it upload and extract answer 503 and
	// committed works can still be studied.
	var extractor extract.Extractor
	ex, err := extract.New(extract.Config{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey(),
		Model:    cfg.AI.Model(),
		BaseURL:  cfg.AI.BaseURL(),
	})
	if err != nil {
		slog.Warn("Extraction disabled", "provider", cfg.AI.Provider, "error", err)
	} else {
		extractor = ex
		slog.Info("Extraction enabled", "provider", cfg.AI.Provider, "model", cfg.AI.Model())
	}

	svc := timeline.NewService(sessions, extractor, quiz.DefaultSource(), timeline.Config{
		SessionTTL:     cfg.SessionTTL,
		ExtractTimeout: cfg.AI.ExtractTimeout,
	}, logger)
	handler := api.NewHandler(svc, cfg.UploadMaxSize)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(identity.Middleware(identity.CookieConfig{
		Name:   cfg.Cookie.Name,
		MaxAge: cfg.SessionTTL,
		Secure: cfg.Cookie.Secure,
	}))

	handler.RegisterRoutes(r)

	// Create server. WriteTimeout must exceed the extraction timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AI.ExtractTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start TTL worker.
	sweeperDone := store.StartTTLWorker(ctx, sessions, cfg.SweepInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	<-sweeperDone

	slog.Info("Server stopped successfully")
}
