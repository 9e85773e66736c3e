// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/api"
	"github.com/starford/dagaz/internal/assets"
	"github.com/starford/dagaz/internal/dashboard"
	"github.com/starford/dagaz/internal/feed"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/noteservice"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("assets_dir", cfg.Assets.Dir),
		slog.String("dashboard_user", cfg.Dashboard.UserID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the asset directory exists.
	if err := os.MkdirAll(cfg.Assets.Dir, 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	// Initialize SQLite persistence.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Change-event broker.
	broker := sse.NewBroker()
	defer broker.Close()

	svc := noteservice.NewService(db, broker)

	// Icon asset registry.
	registry, err := assets.NewRegistry(cfg.Assets.Dir, logger)
	if err != nil {
		return fmt.Errorf("init assets: %w", err)
	}

	// Reactive feed for the local dashboard user, invalidated by note events.
	lister := func(ctx context.Context) ([]models.Note, error) {
		return svc.ListNotes(ctx, cfg.Dashboard.UserID, cfg.Dashboard.IncludeCompleted, cfg.Dashboard.MaxRecords)
	}
	noteFeed := feed.New(lister, broker.Subscribe(), 200*time.Millisecond, logger)

	// Dashboard controller; its notifications stream to SSE clients.
	ctrl := dashboard.NewController(svc, noteFeed, registry.Icons(), cfg.Dashboard.UserID,
		func(n dashboard.Notification) {
			broker.Publish(sse.Event{Type: "notification", Data: n})
		}, logger)
	ctrl.Start(ctx)
	defer ctrl.Close()

	// Build API router.
	defaults := api.Defaults{
		UserID:           cfg.Dashboard.UserID,
		IncludeCompleted: cfg.Dashboard.IncludeCompleted,
		MaxRecords:       cfg.Dashboard.MaxRecords,
	}
	apiRouter := api.NewRouter(svc, defaults, ctrl, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Icon assets.
	r.Handle("/assets/*", http.StripPrefix("/assets/", registry))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the asset directory for icon changes.
	g.Go(func() error {
		return registry.Watch(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio, for LLM clients configured to talk
// to the local note store directly.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Log to stderr: stdout carries the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svc := noteservice.NewService(db, nil)
	srv := mcpserver.New(svc, cfg.Dashboard.UserID)
	return srv.ServeStdio()
}
