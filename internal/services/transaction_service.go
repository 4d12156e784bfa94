package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/metrics"
	"bilancio/internal/query"
	"bilancio/internal/report"
)

type (
	// Publisher announces committed changes. amqp.Client implements it.
	Publisher interface {
		PublishTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error
	}

	// Invalidator drops cached reports of an owner. report.Cached implements it.
	Invalidator interface {
		Invalidate(ctx context.Context, ownerID string) error
	}
)

// TransactionService orchestrates the ledger: listings and writes go to the
// store, summaries to the reporter. After every successful write the owner's
// cached reports are dropped and a change event is published. Neither step
// can fail the request.
type TransactionService struct {
	store       ledger.Store
	builder     query.Builder
	reports     report.Reporter
	invalidator Invalidator
	publisher   Publisher
	now         func() time.Time
}

// NewTransactionService wires the service. invalidator and publisher may be nil.
func NewTransactionService(store ledger.Store, builder query.Builder, reports report.Reporter, invalidator Invalidator, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:       store,
		builder:     builder,
		reports:     reports,
		invalidator: invalidator,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of the owner's transactions matching f.
func (s *TransactionService) List(ctx context.Context, ownerID string, f core.FilterSpec) (core.Page, error) {
	if err := f.Validate(); err != nil {
		return core.Page{}, err
	}
	q := s.builder.Build(ownerID, f)
	items, total, err := s.store.Query(ctx, q)
	if err != nil {
		return core.Page{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.NewPage(items, total, q.Page, q.Limit), nil
}

// Summary totals the owner's transactions inside r. Either bound may be open.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, r core.DateRange) (core.Summary, error) {
	return s.reports.Summary(ctx, ownerID, r)
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.store.Get(ctx, ownerID, id)
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, ownerID, in.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	t := core.NewTransaction(uuid.NewString(), ownerID, in, s.now())
	if err := s.store.Create(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"owner_id", ownerID,
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String())

	s.afterWrite(ctx, ownerID, t.ID, amqp.OpCreated, t.Date.Year())
	return t, nil
}

// Update applies a partial update. The category is checked only when it
// changes, so a transaction whose category was deleted can still be edited.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}
	cur, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.CategoryID != nil && *p.CategoryID != cur.CategoryID {
		if err := s.checkCategory(ctx, ownerID, *p.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	next := p.Apply(cur, s.now())
	if err := s.store.Update(ctx, next); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "owner_id", ownerID, "id", id)

	s.afterWrite(ctx, ownerID, id, amqp.OpUpdated, cur.Date.Year(), next.Date.Year())
	return next, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	cur, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "owner_id", ownerID, "id", id)

	s.afterWrite(ctx, ownerID, id, amqp.OpDeleted, cur.Date.Year())
	return nil
}

// Categories lists the owner's categories.
func (s *TransactionService) Categories(ctx context.Context, ownerID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, ownerID)
}

func (s *TransactionService) checkCategory(ctx context.Context, ownerID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := uuid.Parse(categoryID); err != nil {
		return fmt.Errorf("%w: categoryId %q", core.ErrInvalidFilter, categoryID)
	}
	if _, err := s.store.Resolve(ctx, ownerID, categoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("category %s: %w", categoryID, core.ErrNotFound)
		}
		return fmt.Errorf("resolve category: %w", err)
	}
	return nil
}

func (s *TransactionService) afterWrite(ctx context.Context, ownerID, id string, op amqp.Operation, years ...int) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, ownerID); err != nil {
			slog.WarnContext(ctx, "Failed to invalidate cached reports",
				"owner_id", ownerID, "error", err)
		}
	}

	if s.publisher == nil {
		metrics.EventsPublished.WithLabelValues("skipped").Inc()
		slog.DebugContext(ctx, "No publisher configured, skipping change event")
		return
	}
	msg := amqp.NewTransactionChangedMessage(ownerID, id, op, years...)
	if err := s.publisher.PublishTransactionChanged(ctx, msg); err != nil {
		// the write is committed; consumers catch up on the next change
		metrics.EventsPublished.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Failed to publish transaction changed message",
			"owner_id", ownerID, "id", id, "operation", op, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}
