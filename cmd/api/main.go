// Package main is the entry point for the User Accounts API server.
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

	"github.com/joho/godotenv"

	"github.com/user-accounts/backend/config"
	"github.com/user-accounts/backend/internal/infra/cache"
	"github.com/user-accounts/backend/internal/infra/db"
	"github.com/user-accounts/backend/internal/infra/dependency"
	"github.com/user-accounts/backend/internal/infra/observability"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := observability.NewLogger(os.Stdout, cfg.Log.Level, cfg.Server.IsDevelopment())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting User Accounts API",
		"environment", cfg.Server.Environment,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"database_driver", cfg.Database.Driver,
	)

	database, err := db.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Failed to close database connection", "error", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		return err
	}
	logger.Info("Database migrations completed successfully")

	redis, err := cache.NewRedisConnection(ctx, &cfg.Redis, cfg.Database.ConnectRetries, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", "error", err)
		}
	}()

	injector, err := dependency.NewInjector(cfg, database.DB(), redis.Client(), dependency.HealthCheckers{
		Database: database.HealthCheck,
		Cache:    redis.HealthCheck,
	}, logger, dependency.Options{})
	if err != nil {
		return err
	}

	if err := injector.Accounts.RoleRepo.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	if cfg.Email.WorkerEnabled {
		go injector.EmailWorker.Start(ctx)
		defer injector.EmailWorker.Stop()
	}

	engine := injector.Router.Setup(cfg.Server.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited properly")
	return nil
}
