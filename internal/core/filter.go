package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10

	SortByDate      = "date"
	SortByAmount    = "amount"
	SortByCreatedAt = "createdAt"

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// FilterSpec is the caller's listing request. Zero values mean "not set".
type FilterSpec struct {
	Type       TransactionType
	CategoryID string
	StartDate  *Date
	EndDate    *Date
	Search     string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// Validate checks the fields that cannot be defaulted.
func (f FilterSpec) Validate() error {
	if f.Type != "" && !f.Type.IsValid() {
		return fmt.Errorf("%w: type %q", ErrInvalidFilter, f.Type)
	}
	if f.CategoryID != "" {
		if _, err := uuid.Parse(f.CategoryID); err != nil {
			return fmt.Errorf("%w: categoryId %q", ErrInvalidFilter, f.CategoryID)
		}
	}
	return nil
}

// Range returns the filter's date window.
func (f FilterSpec) Range() DateRange {
	var r DateRange
	if f.StartDate != nil {
		r.Start = *f.StartDate
	}
	if f.EndDate != nil {
		r.End = *f.EndDate
	}
	return r
}

// Page is one page of a listing.
type Page struct {
	Items      []Transaction `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// NewPage computes TotalPages as ceil(total/limit).
func NewPage(items []Transaction, total, page, limit int) Page {
	if items == nil {
		items = []Transaction{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Items: items, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// NormalizeSortOrder maps anything but ASC (any case) to DESC.
func NormalizeSortOrder(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), SortAsc) {
		return SortAsc
	}
	return SortDesc
}
