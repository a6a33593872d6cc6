/**
 * @description
 * This is the main entry point for the dashboard-service.
 * It initializes and wires together all the components of the application:
 * configuration, database connection, Redis, RabbitMQ, the auth client,
 * the application services, the cron scheduler and the HTTP router.
 * Finally, it starts the HTTP server to listen for incoming requests.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/merchly/dashboard-service/internal/api"
	"github.com/merchly/dashboard-service/internal/app"
	"github.com/merchly/dashboard-service/internal/config"
	"github.com/merchly/dashboard-service/internal/store"
	"github.com/merchly/dashboard-service/pkg/authclient"
	"github.com/merchly/dashboard-service/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	// Load application configuration. The auth credentials are required;
	// a missing value is fatal here, before anything else is wired.
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// If a platform-provided PORT is set (e.g., Railway/Render), prefer it
	if port := os.Getenv("PORT"); port != "" {
		cfg.ServerPort = port
	}

	ctx := context.Background()

	// Establish database connection pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to work with PgBouncer transaction pooling
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Ensure required tables exist (idempotent). The unique user_id
	// constraint is what makes merchant creation race-free.
	if _, err := dbpool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS merchants (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL UNIQUE,
            business_name TEXT,
            email TEXT,
            phone_number TEXT,
            country TEXT,
            profile_completed BOOLEAN NOT NULL DEFAULT FALSE,
            contact_completed BOOLEAN NOT NULL DEFAULT FALSE,
            owner_completed BOOLEAN NOT NULL DEFAULT FALSE,
            account_completed BOOLEAN NOT NULL DEFAULT FALSE,
            service_agreement_completed BOOLEAN NOT NULL DEFAULT FALSE,
            completed_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `); err != nil {
		logger.Warn("failed ensuring tables (may already exist)", "error", err)
	}

	// Redis is optional: without it progress and rates are read straight
	// from their sources on every request.
	var redisClient *redis.Client
	if cfg.RedisURL == "" {
		logger.Warn("redis url missing; compliance and rates caching disabled")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Warn("redis url parse failed; caching disabled", "error", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				logger.Warn("redis ping failed; caching disabled", "error", pingErr)
				redisClient.Close()
				redisClient = nil
			}
			cancel()
		}
	}

	// Set up RabbitMQ producer; fall back to a no-op publisher on failure
	var producer rabbitmq.Publisher
	if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		logger.Warn("failed to connect to RabbitMQ at startup; continuing without MQ", "error", err)
		producer = &rabbitmq.NoopPublisher{}
	} else {
		producer = p
		logger.Info("rabbitmq producer connected")
	}
	defer producer.Close()

	// Initialize application layers
	auth := authclient.NewClient(cfg.AuthAPIBaseURL, cfg.AuthAPIKey)
	merchantRepo := store.NewPostgresMerchantRepository(dbpool)
	fixtures := store.NewFixtureStore(cfg.FixturesDir)

	var progressCache app.ProgressCache
	var ratesCache redis.UniversalClient
	if redisClient != nil {
		progressCache = app.NewRedisProgressCache(redisClient, "dashboard:compliance", 10*time.Minute)
		ratesCache = redisClient
	}

	resolver := app.NewResolver(auth, logger)
	ensurer := app.NewEnsurer(merchantRepo, producer, logger)
	compliance := app.NewComplianceService(merchantRepo, progressCache, producer, logger)
	rates := app.NewRatesService(cfg.ExchangeRatesURL, ratesCache, time.Duration(cfg.RatesCacheTTLMinutes)*time.Minute, logger)

	// Start the exchange-rate refresh schedule in the background
	jobs := app.NewJobs(rates, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.RatesRefreshSchedule)
	scheduler.Start()

	handler := api.NewHandler(resolver, ensurer, compliance, rates, fixtures, merchantRepo, cfg.LoginRedirectURL, logger)
	router := api.NewRouter(handler, cfg.AuthJWKSURL)

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
