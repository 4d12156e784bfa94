// Package report assembles monthly, yearly, date-range and top-category
// reports from a ledger.TransactionStore. The Service is stateless and safe
// for concurrent use. It does not log; errors are returned to the caller.
package report

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/aggregate"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

const (
	DefaultTopLimit         = 5
	YearlyTopLimit          = 10
	DefaultTrendChunkDays   = 31
	DefaultTrendConcurrency = 4
	DefaultMaxRangeDays     = 3660
)

// Reporter is implemented by Service and by the caching decorator.
type Reporter interface {
	Monthly(ctx context.Context, ownerID string, month, year int) (core.MonthlyReport, error)
	Yearly(ctx context.Context, ownerID string, year int) (core.YearlyReport, error)
	DateRange(ctx context.Context, ownerID string, start, end core.Date) (core.DateRangeReport, error)
	TopCategories(ctx context.Context, ownerID string, limit int, r core.DateRange) ([]core.CategoryReport, error)
	Summary(ctx context.Context, ownerID string, r core.DateRange) (core.Summary, error)
}

type Options struct {
	// TrendChunkDays is the number of days fetched by one grouped query.
	TrendChunkDays int
	// TrendConcurrency bounds the chunk queries in flight per report.
	TrendConcurrency int
	// MaxRangeDays rejects date-range reports longer than this.
	MaxRangeDays int
}

func (o Options) withDefaults() Options {
	if o.TrendChunkDays < 1 {
		o.TrendChunkDays = DefaultTrendChunkDays
	}
	if o.TrendConcurrency < 1 {
		o.TrendConcurrency = DefaultTrendConcurrency
	}
	if o.MaxRangeDays < 1 {
		o.MaxRangeDays = DefaultMaxRangeDays
	}
	return o
}

type Service struct {
	store ledger.TransactionStore
	opts  Options
}

func NewService(store ledger.TransactionStore, opts Options) *Service {
	return &Service{store: store, opts: opts.withDefaults()}
}

var _ Reporter = (*Service)(nil)

func (s *Service) Monthly(ctx context.Context, ownerID string, month, year int) (core.MonthlyReport, error) {
	if month < 1 || month > 12 {
		return core.MonthlyReport{}, fmt.Errorf("%w: month %d", core.ErrInvalidDateRange, month)
	}
	if err := validateYear(year); err != nil {
		return core.MonthlyReport{}, err
	}
	sum, err := s.Summary(ctx, ownerID, core.MonthRange(year, month))
	if err != nil {
		return core.MonthlyReport{}, err
	}
	return core.MonthlyReport{
		Month:            month,
		Year:             year,
		Income:           sum.TotalIncome,
		Expense:          sum.TotalExpense,
		Balance:          sum.Balance,
		TransactionCount: sum.TransactionCount,
	}, nil
}

func (s *Service) Yearly(ctx context.Context, ownerID string, year int) (core.YearlyReport, error) {
	if err := validateYear(year); err != nil {
		return core.YearlyReport{}, err
	}
	window := core.YearRange(year)
	var (
		sum    core.Summary
		months []core.MonthTypeTotal
		cats   []core.CategoryTypeTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum, err = s.Summary(gctx, ownerID, window)
		return err
	})
	g.Go(func() (err error) {
		months, err = s.store.MonthTypeTotals(gctx, ownerID, year)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.store.CategoryTypeTotals(gctx, ownerID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.YearlyReport{}, err
	}
	return core.YearlyReport{
		Year:          year,
		Summary:       sum,
		MonthlyData:   aggregate.ByMonth(months, year),
		TopCategories: aggregate.RankByExpense(aggregate.ByCategory(cats), YearlyTopLimit),
	}, nil
}

func (s *Service) DateRange(ctx context.Context, ownerID string, start, end core.Date) (core.DateRangeReport, error) {
	window := core.DateRange{Start: start, End: end}
	if !window.Bounded() {
		return core.DateRangeReport{}, fmt.Errorf("%w: start and end dates are required", core.ErrInvalidDateRange)
	}
	if err := window.Validate(); err != nil {
		return core.DateRangeReport{}, err
	}
	if days := window.Days(); days > s.opts.MaxRangeDays {
		return core.DateRangeReport{}, fmt.Errorf("%w: %d days exceeds the limit of %d",
			core.ErrInvalidDateRange, days, s.opts.MaxRangeDays)
	}

	var (
		sum    core.Summary
		cats   []core.CategoryTypeTotal
		trends []core.DailyTrend
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum, err = s.Summary(gctx, ownerID, window)
		return err
	})
	g.Go(func() (err error) {
		cats, err = s.store.CategoryTypeTotals(gctx, ownerID, window)
		return err
	})
	g.Go(func() (err error) {
		trends, err = s.DailyTrends(gctx, ownerID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.DateRangeReport{}, err
	}
	return core.DateRangeReport{
		StartDate:         start,
		EndDate:           end,
		Summary:           sum,
		CategoryBreakdown: aggregate.ByCategory(cats),
		DailyTrends:       trends,
	}, nil
}

// TopCategories ranks categories by expense over an optional window. The
// returned percentages are relative to the returned set.
func (s *Service) TopCategories(ctx context.Context, ownerID string, limit int, r core.DateRange) ([]core.CategoryReport, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultTopLimit
	}
	rows, err := s.store.CategoryTypeTotals(ctx, ownerID, r)
	if err != nil {
		return nil, err
	}
	return aggregate.TopCategories(aggregate.ByCategory(rows), limit), nil
}

// Summary totals an optional window. Both bounds may be open.
func (s *Service) Summary(ctx context.Context, ownerID string, r core.DateRange) (core.Summary, error) {
	if err := r.Validate(); err != nil {
		return core.Summary{}, err
	}
	txns, err := s.store.ScanRange(ctx, ownerID, r)
	if err != nil {
		return core.Summary{}, err
	}
	return aggregate.Summarize(txns), nil
}

// DailyTrends returns one entry per day of the bounded range r. The range is
// split into chunks queried concurrently; each chunk owns one result slot so
// the output stays chronological whatever the completion order.
func (s *Service) DailyTrends(ctx context.Context, ownerID string, r core.DateRange) ([]core.DailyTrend, error) {
	chunks := Chunks(r, s.opts.TrendChunkDays)
	results := make([][]core.DayTypeTotal, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.TrendConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := s.store.DayTypeTotals(gctx, ownerID, chunk)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []core.DayTypeTotal
	for _, part := range results {
		rows = append(rows, part...)
	}
	return aggregate.ByDay(rows, r), nil
}

// Chunks splits a bounded range into consecutive windows of at most size days.
func Chunks(r core.DateRange, size int) []core.DateRange {
	if size < 1 {
		size = 1
	}
	var out []core.DateRange
	for start := r.Start; !start.After(r.End); start = start.AddDays(size) {
		end := start.AddDays(size - 1)
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, core.DateRange{Start: start, End: end})
	}
	return out
}

func validateYear(year int) error {
	if year < core.MinYear || year > core.MaxYear {
		return fmt.Errorf("%w: year %d", core.ErrInvalidDateRange, year)
	}
	return nil
}
