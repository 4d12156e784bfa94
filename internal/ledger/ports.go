// Package ledger defines the storage ports the query and report engine
// depend on. Implementations live in internal/storage and
// internal/storage/memory.
package ledger

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/query"
)

// TransactionStore is the read side used by listings and reports. Every
// method is scoped to one owner. Failures are reported as
// core.ErrStoreUnavailable.
type TransactionStore interface {
	// Query returns one page of matches and the total match count.
	Query(ctx context.Context, q query.Query) ([]core.Transaction, int, error)
	// ScanRange returns every transaction of the owner inside r.
	ScanRange(ctx context.Context, ownerID string, r core.DateRange) ([]core.Transaction, error)
	// MonthTypeTotals groups a calendar year by (month, type).
	MonthTypeTotals(ctx context.Context, ownerID string, year int) ([]core.MonthTypeTotal, error)
	// CategoryTypeTotals groups r by (category, type), with category name and
	// color resolved. Uncategorized rows carry an empty CategoryID.
	CategoryTypeTotals(ctx context.Context, ownerID string, r core.DateRange) ([]core.CategoryTypeTotal, error)
	// DayTypeTotals groups a bounded range by (date, type). Days without
	// transactions are absent.
	DayTypeTotals(ctx context.Context, ownerID string, r core.DateRange) ([]core.DayTypeTotal, error)
}

// TransactionWriter is the write side. Get, Update and Delete return
// core.ErrNotFound when the id does not exist for the owner.
type TransactionWriter interface {
	Create(ctx context.Context, t core.Transaction) error
	Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, ownerID, id string) error
}

// CategoryLookup resolves categories visible to an owner.
type CategoryLookup interface {
	// Resolve returns core.ErrNotFound when the category is missing or
	// belongs to another owner.
	Resolve(ctx context.Context, ownerID, categoryID string) (core.Category, error)
}

// CategoryStore manages an owner's categories.
type CategoryStore interface {
	CategoryLookup
	CreateCategory(ctx context.Context, c core.Category) error
	ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
}

// Store is everything a backend provides.
type Store interface {
	TransactionStore
	TransactionWriter
	CategoryStore
	Ping(ctx context.Context) error
}
