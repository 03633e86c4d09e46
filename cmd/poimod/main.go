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

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kelseyhightower/envconfig"
	"github.com/riandyrn/otelchi"

	"github.com/voyara/poimod/internal/adapter/auth"
	"github.com/voyara/poimod/internal/adapter/fsm"
	"github.com/voyara/poimod/internal/adapter/otel"
	"github.com/voyara/poimod/internal/adapter/sqlite"
	"github.com/voyara/poimod/internal/app"

	handler "github.com/voyara/poimod/internal/adapter/http"
	riveradapter "github.com/voyara/poimod/internal/adapter/river"
)

// config is the process configuration, loaded from the environment.
type config struct {
	Port         string   `envconfig:"PORT" default:"8080"`
	DatabasePath string   `envconfig:"DATABASE_PATH" default:"poimod.db"`
	AdminIDs     []string `envconfig:"ADMIN_IDS"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	convs := sqlite.NewConversationRepository(db)

	riverClient, err := riveradapter.Setup(ctx, db)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			slog.Error("river stop", "error", err)
		}
	}()

	// --- Application ---
	svc := app.NewModerationService(
		otel.NewTracingRepository(repo),
		convs,
		auth.NewStaticResolver(cfg.AdminIDs),
		fsm.New(),
		otel.NewTracingPublisher(riveradapter.NewPublisher(riverClient)),
	)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("poimod", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("poimod", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("poimod listening", "port", cfg.Port, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("stopped")
	return nil
}
