package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/query"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateCategory(ctx, core.Category{ID: "food", OwnerID: "alice", Name: "Food", Color: "#ff6b6b"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	now := time.Now()
	txns := []core.Transaction{
		{ID: "1", OwnerID: "alice", Type: core.Expense, Amount: core.Cents(100), Date: core.NewDate(2024, 5, 15), Description: "a", CategoryID: "food", CreatedAt: now},
		{ID: "2", OwnerID: "alice", Type: core.Income, Amount: core.Cents(2000), Date: core.NewDate(2024, 5, 20), Description: "b", CreatedAt: now},
		{ID: "3", OwnerID: "bob", Type: core.Expense, Amount: core.Cents(999), Date: core.NewDate(2024, 5, 15), Description: "c", CreatedAt: now},
		{ID: "4", OwnerID: "alice", Type: core.Expense, Amount: core.Cents(40), Date: core.NewDate(2024, 6, 1), Description: "d", CategoryID: "gone", CreatedAt: now},
	}
	for _, txn := range txns {
		if err := s.Create(ctx, txn); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
}

func TestQueryIsolationAndPaging(t *testing.T) {
	s := New()
	seed(t, s)
	b := query.NewBuilder(0)

	items, total, err := s.Query(context.Background(), b.Build("alice", core.FilterSpec{Limit: 2}))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected 3 total and 2 items, got %d/%d", total, len(items))
	}
	for _, it := range items {
		if it.OwnerID != "alice" {
			t.Fatalf("leaked transaction %s of %s", it.ID, it.OwnerID)
		}
	}
	// newest first
	if items[0].ID != "4" || items[1].ID != "2" {
		t.Fatalf("unexpected order %s,%s", items[0].ID, items[1].ID)
	}

	items, _, _ = s.Query(context.Background(), b.Build("alice", core.FilterSpec{Page: 2, Limit: 2}))
	if len(items) != 1 || items[0].ID != "1" {
		t.Fatalf("unexpected second page %+v", items)
	}
	items, _, _ = s.Query(context.Background(), b.Build("alice", core.FilterSpec{Page: 9, Limit: 2}))
	if len(items) != 0 {
		t.Fatalf("expected empty page past the end")
	}
}

func TestCategoryTypeTotalsTreatsDanglingAsUncategorized(t *testing.T) {
	s := New()
	seed(t, s)
	rows, err := s.CategoryTypeTotals(context.Background(), "alice", core.DateRange{})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	var uncategorized, food int64
	for _, r := range rows {
		switch r.CategoryID {
		case "":
			uncategorized += r.Total.Cents
		case "food":
			if r.CategoryName != "Food" {
				t.Fatalf("category name not resolved: %+v", r)
			}
			food += r.Total.Cents
		default:
			t.Fatalf("unexpected category %q", r.CategoryID)
		}
	}
	if food != 100 || uncategorized != 2040 {
		t.Fatalf("unexpected totals food=%d uncategorized=%d", food, uncategorized)
	}
}

func TestWriteScopedToOwner(t *testing.T) {
	s := New()
	seed(t, s)
	ctx := context.Background()

	if _, err := s.Get(ctx, "bob", "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
	if err := s.Delete(ctx, "bob", "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	if err := s.Delete(ctx, "alice", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "alice", "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted transaction to be gone, got %v", err)
	}
	if _, err := s.Resolve(ctx, "bob", "food"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected category of another owner to be hidden, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.DayTypeTotals(ctx, "alice", core.YearRange(2024)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
