// Package memory is a ReportWriter that keeps exports in process. The worker
// uses it when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"bilancio/internal/core"
)

type Store struct {
	mu      sync.Mutex
	reports map[string]core.YearlyReport
	writes  int
}

func New() *Store {
	return &Store{reports: make(map[string]core.YearlyReport)}
}

func key(ownerID string, year int) string {
	return fmt.Sprintf("%s/%d", ownerID, year)
}

// WriteYearlyReport replaces the stored report and returns a synthetic reference.
func (s *Store) WriteYearlyReport(ctx context.Context, ownerID string, r core.YearlyReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(ownerID, r.Year)
	s.reports[k] = r
	s.writes++

	slog.InfoContext(ctx, "Yearly report exported",
		"owner_id", ownerID,
		"year", r.Year,
		"income", r.TotalIncome.String(),
		"expense", r.TotalExpense.String(),
		"balance", r.Balance.String())
	return "mem:" + k, nil
}

// Report returns the last export for ownerID and year.
func (s *Store) Report(ownerID string, year int) (core.YearlyReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[key(ownerID, year)]
	return r, ok
}

// Writes counts every export, including replacements.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
