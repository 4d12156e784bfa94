// Command bilancio-export rebuilds the yearly report exports of one owner.
// It is the one-shot counterpart of bilancio-worker, useful after an import
// or when the export sheet was edited by hand.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/report"
	"bilancio/internal/worker"
)

func main() {
	now := time.Now().UTC()
	owner := flag.String("owner", "", "owner id whose reports are exported")
	from := flag.Int("from", now.Year(), "first year to export")
	to := flag.Int("to", now.Year(), "last year to export")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)

	if *owner == "" || *from > *to {
		logger.Error("Invalid arguments", "owner", *owner, "from", *from, "to", *to)
		flag.Usage()
		os.Exit(2)
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
	defer be.Cleanup()

	writer, err := factory.CreateReportWriter(ctx, backend.WriterConfig{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		ReportName:    cfg.SheetsReportName,
	})
	if err != nil {
		logger.Error("Failed to initialize report writer", "error", err)
		os.Exit(1)
	}

	reports := report.NewService(be.Store, report.Options{
		TrendChunkDays:   cfg.TrendChunkDays,
		TrendConcurrency: cfg.TrendConcurrency,
		MaxRangeDays:     cfg.MaxTrendDays,
	})
	w := worker.NewReportSyncWorker(reports, writer)

	failed := 0
	for year := *from; year <= *to; year++ {
		if err := w.SyncYear(ctx, *owner, year); err != nil {
			logger.Error("Export failed", "error", err, "owner_id", *owner, "year", year)
			failed++
			continue
		}
		logger.Info("Exported yearly report", "owner_id", *owner, "year", year)
	}
	if failed > 0 {
		_ = be.Cleanup()
		os.Exit(1)
	}
}
