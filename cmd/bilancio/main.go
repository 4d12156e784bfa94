package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/middleware/auth"
	"bilancio/internal/query"
	"bilancio/internal/report"
	"bilancio/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	logger.Info("Starting bilancio")

	backendCfg, cacheCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	factory := backend.NewFactory(logger)

	be, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	cached, err := factory.CreateCache(ctx, cacheCfg)
	if err != nil {
		logger.Error("Failed to initialize report cache", "error", err, "cache", cacheCfg.Type)
		_ = be.Cleanup()
		os.Exit(1)
	}

	var reporter report.Reporter = report.NewService(be.Store, report.Options{
		TrendChunkDays:   cfg.TrendChunkDays,
		TrendConcurrency: cfg.TrendConcurrency,
		MaxRangeDays:     cfg.MaxTrendDays,
	})
	var invalidator services.Invalidator
	if cached.Store != nil {
		c := report.NewCached(reporter, cached.Store)
		reporter, invalidator = c, c
	}

	// AMQP is optional; without it exports are not kept in sync.
	var (
		amqpClient *amqp.Client
		publisher  services.Publisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - change events will not be published")
	}

	ledgerSvc := services.NewTransactionService(be.Store, query.NewBuilder(cfg.MaxPageLimit), reporter, invalidator, publisher)

	if cfg.SeedOwnerID != "" {
		n, err := services.SeedDefaultCategories(ctx, be.Store, cfg.SeedOwnerID)
		if err != nil {
			logger.Error("Failed to seed default categories", "error", err, "owner_id", cfg.SeedOwnerID)
		} else if n > 0 {
			logger.Info("Seeded default categories", "owner_id", cfg.SeedOwnerID, "count", n)
		}
	}

	authenticator, err := auth.New(cfg.AuthMode, cfg.JWTSecret)
	if err != nil {
		logger.Error("Failed to initialize authentication", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:  ledgerSvc,
		Reports: reporter,
		Store:   be.Store,
		Auth:    authenticator,
		Logger:  logger,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		BlockSuspicious:    cfg.BlockSuspicious,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			amqpClient.Close()
		}
		if err := cached.Cleanup(); err != nil {
			logger.Error("Cache cleanup error", "error", err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting bilancio server",
		"port", cfg.Port,
		"backend", backendCfg.Type,
		"cache", cacheCfg.Type,
		"auth_mode", cfg.AuthMode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
