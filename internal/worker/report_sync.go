package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/metrics"
	"bilancio/internal/report"
	"bilancio/internal/sheets"
)

// Consumer delivers change messages until ctx is done. amqp.Client implements it.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// ReportSyncWorker keeps exported yearly reports in step with the ledger.
// Each change message names the owner and the years it touched; the worker
// rebuilds those years and overwrites their export.
type ReportSyncWorker struct {
	reports report.Reporter
	writer  sheets.ReportWriter
}

func NewReportSyncWorker(reports report.Reporter, writer sheets.ReportWriter) *ReportSyncWorker {
	return &ReportSyncWorker{reports: reports, writer: writer}
}

// Run consumes until ctx is cancelled.
func (w *ReportSyncWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.Consume(ctx, w.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleMessage processes a single transaction changed message. A returned
// error makes the consumer requeue the message.
func (w *ReportSyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	slog.InfoContext(ctx, "Processing transaction changed message",
		"owner_id", msg.OwnerID,
		"transaction_id", msg.TransactionID,
		"operation", msg.Operation,
		"years", msg.Years)

	if len(msg.Years) == 0 {
		metrics.SyncProcessed.WithLabelValues("skipped").Inc()
		slog.WarnContext(ctx, "Message names no years, nothing to sync", "owner_id", msg.OwnerID)
		return nil
	}

	for _, year := range msg.Years {
		if err := w.SyncYear(ctx, msg.OwnerID, year); err != nil {
			if errors.Is(err, core.ErrInvalidDateRange) {
				// requeueing cannot fix a bad year
				metrics.SyncProcessed.WithLabelValues("rejected").Inc()
				slog.ErrorContext(ctx, "Skipping invalid year", "owner_id", msg.OwnerID, "year", year, "error", err)
				continue
			}
			metrics.SyncProcessed.WithLabelValues("error").Inc()
			return err
		}
	}
	metrics.SyncProcessed.WithLabelValues("ok").Inc()
	return nil
}

// SyncYear rebuilds and exports one yearly report.
func (w *ReportSyncWorker) SyncYear(ctx context.Context, ownerID string, year int) error {
	r, err := w.reports.Yearly(ctx, ownerID, year)
	if err != nil {
		return fmt.Errorf("build yearly report %d: %w", year, err)
	}
	ref, err := w.writer.WriteYearlyReport(ctx, ownerID, r)
	if err != nil {
		return fmt.Errorf("write yearly report %d: %w", year, err)
	}

	slog.InfoContext(ctx, "Successfully synced yearly report",
		"owner_id", ownerID,
		"year", year,
		"ref", ref,
		"balance", r.Balance.String())
	return nil
}
