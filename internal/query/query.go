// Package query turns a caller's FilterSpec into a normalized Query: owner
// scope, predicates, a validated sort and pagination bounds. Stores render
// the Query to SQL or evaluate it in memory.
package query

import (
	"cmp"
	"strings"

	"bilancio/internal/core"
)

// DefaultMaxLimit caps the page size when the builder is not configured.
const DefaultMaxLimit = 100

var sortFields = map[string]bool{
	core.SortByDate:      true,
	core.SortByAmount:    true,
	core.SortByCreatedAt: true,
}

type Sort struct {
	Field string // one of core.SortBy*
	Desc  bool
}

type Query struct {
	OwnerID    string
	Type       core.TransactionType
	CategoryID string
	Range      core.DateRange
	Search     string // case folded, empty when not searching
	Sort       Sort
	Page       int
	Limit      int
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Builder applies defaults and limits to filter specs.
type Builder struct {
	MaxLimit int
}

func NewBuilder(maxLimit int) Builder {
	if maxLimit < 1 {
		maxLimit = DefaultMaxLimit
	}
	return Builder{MaxLimit: maxLimit}
}

// Build never fails: unknown sort fields fall back to date, out of range
// page and limit values are replaced by their defaults.
func (b Builder) Build(ownerID string, f core.FilterSpec) Query {
	q := Query{
		OwnerID:    ownerID,
		Type:       f.Type,
		CategoryID: f.CategoryID,
		Range:      f.Range(),
		Search:     core.Fold(f.Search),
		Page:       f.Page,
		Limit:      f.Limit,
	}

	field := strings.TrimSpace(f.SortBy)
	if !sortFields[field] {
		field = core.SortByDate
	}
	q.Sort = Sort{Field: field, Desc: core.NormalizeSortOrder(f.SortOrder) == core.SortDesc}

	if q.Page < 1 {
		q.Page = core.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = core.DefaultLimit
	}
	maxLimit := b.MaxLimit
	if maxLimit < 1 {
		maxLimit = DefaultMaxLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

// Matches evaluates the predicate part of q against t.
func (q Query) Matches(t core.Transaction) bool {
	if t.OwnerID != q.OwnerID {
		return false
	}
	if q.Type != "" && t.Type != q.Type {
		return false
	}
	if q.CategoryID != "" && t.CategoryID != q.CategoryID {
		return false
	}
	if !q.Range.Contains(t.Date) {
		return false
	}
	if q.Search != "" {
		if !strings.Contains(core.Fold(t.Description), q.Search) &&
			!strings.Contains(core.Fold(t.Notes), q.Search) {
			return false
		}
	}
	return true
}

// Less orders a before b by the requested sort, then by id ascending.
func (q Query) Less(a, b core.Transaction) bool {
	if c := compareField(q.Sort.Field, a, b); c != 0 {
		if q.Sort.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

func compareField(field string, a, b core.Transaction) int {
	switch field {
	case core.SortByAmount:
		return cmp.Compare(a.Amount.Cents, b.Amount.Cents)
	case core.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return a.Date.Compare(b.Date.Time)
	}
}
