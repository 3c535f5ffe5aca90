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

	"github.com/joho/godotenv"

	"github.com/askblob/askblob/internal/api"
	"github.com/askblob/askblob/internal/ask"
	"github.com/askblob/askblob/internal/auth"
	"github.com/askblob/askblob/internal/config"
	"github.com/askblob/askblob/internal/dataset"
	historypostgres "github.com/askblob/askblob/internal/history/postgres"
	"github.com/askblob/askblob/internal/observability"
	"github.com/askblob/askblob/internal/omni"
	"github.com/askblob/askblob/internal/session"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("askblob-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	registry, err := dataset.LoadRegistry(cfg.Datasets.File)
	if err != nil {
		logger.Error("failed to load dataset registry", slog.Any("error", err))
		os.Exit(1)
	}

	omniClient, err := omni.NewClient(omni.Config{
		BaseURL: cfg.Omni.BaseURL,
		APIKey:  cfg.Omni.APIKey,
		Timeout: cfg.Omni.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize omni client", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:   logger,
		Registry: registry,
		Sessions: session.NewStore(registry),
		Ask: &ask.Orchestrator{
			Generator: omniClient,
			Runner:    omniClient,
			Logger:    logger,
		},
		DependencyTimeout: time.Second,
	}

	readiness := []api.ReadinessCheck{api.CheckOmniConfig(cfg)}
	if cfg.History.DSN != "" {
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()

		if err := historypostgres.EnsureSchema(context.Background(), historyDB); err != nil {
			logger.Error("failed to apply history schema", slog.Any("error", err))
			os.Exit(1)
		}
		repo := historypostgres.NewRepository(historyDB)
		deps.History = repo
		readiness = append(readiness, repo.HealthCheck)
	}
	deps.Readiness = api.CombineReadinessChecks(readiness...)

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("api server stopped")
}
