package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/eventease/internal/config"
	"github.com/joshua-takyi/eventease/internal/connect"
	"github.com/joshua-takyi/eventease/internal/container"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/logging"
	"github.com/joshua-takyi/eventease/internal/metrics"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/joshua-takyi/eventease/internal/routes"
)

func main() {
	// .env.local wins over .env; godotenv never overrides variables already set
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	logger.Info("Starting EventEase API server", "environment", cfg.Environment, "database", cfg.DatabaseDriver)

	ctx := context.Background()

	supaClient, err := connect.InitSupabase(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	m := metrics.New()

	store, closeStore, err := openStore(ctx, cfg, m, logger)
	if err != nil {
		logger.Error("Failed to open store", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}

	validator, err := helpers.NewTokenValidator(ctx, cfg.SupabaseURL, cfg.SupabaseJWTSecret, logger)
	if err != nil {
		logger.Error("Failed to initialise token validation", "error", err)
		os.Exit(1)
	}

	users := models.SupabaseNewRepo(supaClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	appContainer := container.NewContainer(cfg, logger, users, store, validator, m)

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	validator.Close()
	if err := closeStore.Close(); err != nil {
		logger.Error("Error closing store", "error", err)
	}
	connect.Disconnect()

	logger.Info("Server exited")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (models.Store, io.Closer, error) {
	if cfg.DatabaseDriver == config.DriverMongo {
		client, err := connect.MongoDBConnect(ctx, cfg.MongoDBURI, cfg.MongoDBPassword, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := models.MongodbNewRepo(client, cfg.MongoDBDatabase)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = connect.MongoDBDisconnect(ctx)
			return nil, nil, err
		}
		return repo, closerFunc(func() error { return connect.MongoDBDisconnect(context.Background()) }), nil
	}

	db, err := connect.OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := models.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	m.WatchDB(db.DB, cfg.DatabaseDriver)
	logger.Info("SQL store ready", "driver", cfg.DatabaseDriver)
	return models.SQLNewRepo(db), db, nil
}
