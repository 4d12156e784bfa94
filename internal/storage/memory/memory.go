// Package memory is an in-process ledger.Store used for development and as
// the fake store in tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/query"
)

type Store struct {
	mu    sync.RWMutex
	txns  map[string]core.Transaction
	cats  map[string]core.Category
	order []string // category ids by insertion
}

func New() *Store {
	return &Store{
		txns: make(map[string]core.Transaction),
		cats: make(map[string]core.Category),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Create(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[t.ID]; ok {
		return fmt.Errorf("create transaction %s: duplicate id", t.ID)
	}
	s.txns[t.ID] = clone(t)
	return nil
}

func (s *Store) Get(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txns[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	return clone(t), nil
}

func (s *Store) Update(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.txns[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	t.CreatedAt = cur.CreatedAt
	s.txns[t.ID] = clone(t)
	return nil
}

func (s *Store) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok || t.OwnerID != ownerID {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.txns, id)
	return nil
}

func (s *Store) Query(ctx context.Context, q query.Query) ([]core.Transaction, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	matches := s.filter(q.Matches)
	slices.SortFunc(matches, func(a, b core.Transaction) int {
		switch {
		case q.Less(a, b):
			return -1
		case q.Less(b, a):
			return 1
		}
		return 0
	})
	total := len(matches)
	from := min(q.Offset(), total)
	to := min(from+q.Limit, total)
	return matches[from:to], total, nil
}

func (s *Store) ScanRange(ctx context.Context, ownerID string, r core.DateRange) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.filter(inRange(ownerID, r))
	slices.SortFunc(out, func(a, b core.Transaction) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) MonthTypeTotals(ctx context.Context, ownerID string, year int) ([]core.MonthTypeTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type key struct {
		month int
		typ   core.TransactionType
	}
	acc := map[key]*core.MonthTypeTotal{}
	var out []core.MonthTypeTotal
	for _, t := range s.filter(inRange(ownerID, core.YearRange(year))) {
		k := key{t.Date.Month(), t.Type}
		if acc[k] == nil {
			acc[k] = &core.MonthTypeTotal{Month: k.month, Type: k.typ}
		}
		acc[k].Total = acc[k].Total.Add(t.Amount)
		acc[k].Count++
	}
	for _, v := range acc {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b core.MonthTypeTotal) int {
		if c := cmp.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out, nil
}

func (s *Store) CategoryTypeTotals(ctx context.Context, ownerID string, r core.DateRange) ([]core.CategoryTypeTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type key struct {
		cat string
		typ core.TransactionType
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc := map[key]*core.CategoryTypeTotal{}
	for _, t := range s.filterLocked(inRange(ownerID, r)) {
		var name, color string
		catID := t.CategoryID
		// weak reference: a dangling id is reported as uncategorized
		if c, ok := s.category(catID); ok {
			name, color = c.Name, c.Color
		} else {
			catID = ""
		}
		k := key{catID, t.Type}
		if acc[k] == nil {
			acc[k] = &core.CategoryTypeTotal{CategoryID: catID, CategoryName: name, CategoryColor: color, Type: t.Type}
		}
		acc[k].Total = acc[k].Total.Add(t.Amount)
		acc[k].Count++
	}
	out := make([]core.CategoryTypeTotal, 0, len(acc))
	for _, v := range acc {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b core.CategoryTypeTotal) int {
		if c := cmp.Compare(a.CategoryID, b.CategoryID); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out, nil
}

func (s *Store) DayTypeTotals(ctx context.Context, ownerID string, r core.DateRange) ([]core.DayTypeTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type key struct {
		day string
		typ core.TransactionType
	}
	acc := map[key]*core.DayTypeTotal{}
	for _, t := range s.filter(inRange(ownerID, r)) {
		k := key{t.Date.String(), t.Type}
		if acc[k] == nil {
			acc[k] = &core.DayTypeTotal{Date: t.Date, Type: t.Type}
		}
		acc[k].Total = acc[k].Total.Add(t.Amount)
	}
	out := make([]core.DayTypeTotal, 0, len(acc))
	for _, v := range acc {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b core.DayTypeTotal) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out, nil
}

func (s *Store) Resolve(_ context.Context, ownerID, categoryID string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[categoryID]
	if !ok || c.OwnerID != ownerID {
		return core.Category{}, fmt.Errorf("resolve category %s: %w", categoryID, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[c.ID]; ok {
		return fmt.Errorf("create category %s: duplicate id", c.ID)
	}
	s.cats[c.ID] = c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *Store) ListCategories(_ context.Context, ownerID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, id := range s.order {
		if c := s.cats[id]; c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// DeleteCategory removes a category. Transactions keep the dangling id.
func (s *Store) DeleteCategory(ownerID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cats[id]; ok && c.OwnerID == ownerID {
		delete(s.cats, id)
	}
}

// category must be called with s.mu held.
func (s *Store) category(id string) (core.Category, bool) {
	if id == "" {
		return core.Category{}, false
	}
	c, ok := s.cats[id]
	return c, ok
}

func (s *Store) filter(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterLocked(keep)
}

func (s *Store) filterLocked(keep func(core.Transaction) bool) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.txns {
		if keep(t) {
			out = append(out, clone(t))
		}
	}
	return out
}

func inRange(ownerID string, r core.DateRange) func(core.Transaction) bool {
	return func(t core.Transaction) bool {
		return t.OwnerID == ownerID && r.Contains(t.Date)
	}
}

func clone(t core.Transaction) core.Transaction {
	t.Tags = slices.Clone(t.Tags)
	return t
}
