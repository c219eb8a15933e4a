package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/cropseason/internal/adapter/fsm"
	oteladapter "github.com/neomorfeo/cropseason/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/cropseason/internal/adapter/river"
	"github.com/neomorfeo/cropseason/internal/adapter/sqlite"
	"github.com/neomorfeo/cropseason/internal/app"
	"github.com/neomorfeo/cropseason/internal/config"

	handler "github.com/neomorfeo/cropseason/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cropseason exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Parse[config.Server]()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otelCfg, err := oteladapter.ConfigFromEnv()
	if err != nil {
		return err
	}
	providers, err := oteladapter.Setup(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(flushCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	// River migrates first so its tables exist before any status change
	// enqueues a job.
	riverClient, err := riveradapter.Setup(ctx, db, riveradapter.Options{
		Workers: cfg.JobWorkers,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	publisher, err := oteladapter.NewTracingPublisher(riveradapter.NewPublisher(riverClient))
	if err != nil {
		return fmt.Errorf("tracing publisher: %w", err)
	}

	repo, err := sqlite.NewFromDB(db, sqlite.WithPublisher(publisher))
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	store, err := oteladapter.NewTracingStore(repo)
	if err != nil {
		return fmt.Errorf("tracing store: %w", err)
	}

	// --- Application ---
	svc := app.NewSeasonService(store, fsm.New(), app.WithLogger(logger))

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(otelCfg.ServiceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("cropseason", otelCfg.ServiceVersion))
	handler.Register(api, svc, store, repo)

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("cropseason listening", "addr", srv.Addr, "docs", "http://localhost"+srv.Addr+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("server: %w", err)
		}
	}

	// Graceful shutdown.
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("river shutdown: %w", err))
	}

	logger.Info("stopped")
	return runErr
}
