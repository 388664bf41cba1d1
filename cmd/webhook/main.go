// Order bot webhook - conversational checkout, reviews and order lookups
// behind a dialog platform fulfillment webhook, a read API and MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"orderbot/internal/browse"
	"orderbot/internal/checkout"
	"orderbot/internal/config"
	"orderbot/internal/dialog"
	"orderbot/internal/handler"
	"orderbot/internal/middleware"
	"orderbot/internal/orders"
	"orderbot/internal/review"
	"orderbot/internal/session"
	"orderbot/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize structured logger
	logger := newLogger(os.Stdout, cfg)

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("session_backend", cfg.Session.Backend),
	)

	catalog, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.Options{
		QueryTimeout: cfg.Database.QueryTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer catalog.Close()

	if cfg.Database.AutoMigrate {
		if err := catalog.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		logger.Info("schema migrated")
	}
	if cfg.Database.Seed {
		if err := catalog.Seed(ctx); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
		logger.Info("catalog seeded")
	}

	records, drafts, closer, err := createSessionStores(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer closer.Close()

	checkoutSvc := checkout.New(catalog, records, logger, checkout.Config{
		CashOnDeliveryMethods: cfg.Checkout.CashOnDeliveryMethods,
	})
	dispatcher := dialog.NewDispatcher(dialog.Services{
		Checkout: checkoutSvc,
		Review: review.New(catalog, drafts, checkoutSvc, logger, review.Config{
			DefaultCustomerID: cfg.Review.DefaultCustomerID,
		}),
		Browse: browse.New(catalog, logger),
		Orders: orders.New(catalog, checkoutSvc, logger),
	}, logger)

	h := handler.New(dispatcher, catalog, checkoutSvc, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → rate limit → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
			slog.Int("intents", len(dispatcher.Intents())),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createSessionStores builds the checkout and review stores for the
// configured backend. Both share one redis client under distinct prefixes.
func createSessionStores(ctx context.Context, cfg config.SessionConfig) (session.Store[session.Record], session.Store[review.Draft], io.Closer, error) {
	switch cfg.Backend {
	case config.SessionMemory:
		return session.NewMemoryStore[session.Record](), session.NewMemoryStore[review.Draft](), nopCloser{}, nil
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return session.NewRedisStore[session.Record](client, "orderbot:session:", cfg.TTL),
			session.NewRedisStore[review.Draft](client, "orderbot:review:", cfg.TTL),
			client, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}

// newLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
