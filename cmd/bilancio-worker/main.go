package main

import (
	"context"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/report"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)

	logger.Info("Starting bilancio-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report sync worker")
		os.Exit(1)
	}

	backendCfg, _, err := backend.FromAppConfig(cfg)
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

	writer, err := factory.CreateReportWriter(ctx, backend.WriterConfig{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		ReportName:    cfg.SheetsReportName,
	})
	if err != nil {
		logger.Error("Failed to initialize report writer", "error", err)
		_ = be.Cleanup()
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		_ = be.Cleanup()
		os.Exit(1)
	}

	// The worker always reads fresh totals, so no report cache here.
	reports := report.NewService(be.Store, report.Options{
		TrendChunkDays:   cfg.TrendChunkDays,
		TrendConcurrency: cfg.TrendConcurrency,
		MaxRangeDays:     cfg.MaxTrendDays,
	})
	syncWorker := worker.NewReportSyncWorker(reports, writer)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		amqpClient.Close()
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if err := syncWorker.Run(runCtx, amqpClient); err != nil {
		logger.Error("Message consumption failed", "error", err)
		amqpClient.Close()
		_ = be.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker shutdown complete")
}
