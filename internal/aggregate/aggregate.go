// Package aggregate reduces transactions and grouped store rows into report
// values. All functions are pure.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Summarize totals income and expense. Count includes every record.
func Summarize(txns []core.Transaction) core.Summary {
	var s core.Summary
	for _, t := range txns {
		switch t.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	s.TransactionCount = len(txns)
	return s
}

// ByCategory folds (category, type) rows into one report per category,
// ordered by category id. The percentage denominator is the expense total of
// all rows, uncategorized included, while the uncategorized group itself is
// not listed.
func ByCategory(rows []core.CategoryTypeTotal) []core.CategoryReport {
	index := make(map[string]int)
	var out []core.CategoryReport
	var grandExpense core.Money

	for _, r := range rows {
		if r.Type == core.Expense {
			grandExpense = grandExpense.Add(r.Total)
		}
		if r.CategoryID == "" {
			continue
		}
		i, ok := index[r.CategoryID]
		if !ok {
			i = len(out)
			index[r.CategoryID] = i
			out = append(out, core.CategoryReport{
				CategoryID:    r.CategoryID,
				CategoryName:  r.CategoryName,
				CategoryColor: r.CategoryColor,
			})
		}
		switch r.Type {
		case core.Income:
			out[i].Income = out[i].Income.Add(r.Total)
		case core.Expense:
			out[i].Expense = out[i].Expense.Add(r.Total)
		}
		out[i].TransactionCount += r.Count
	}

	slices.SortFunc(out, func(a, b core.CategoryReport) int {
		return cmp.Compare(a.CategoryID, b.CategoryID)
	})
	applyPercentages(out, grandExpense)
	if out == nil {
		out = []core.CategoryReport{}
	}
	return out
}

// ApplyPercentages recomputes every percentage relative to the expense total
// of reports itself.
func ApplyPercentages(reports []core.CategoryReport) {
	var total core.Money
	for _, r := range reports {
		total = total.Add(r.Expense)
	}
	applyPercentages(reports, total)
}

// percentages are truncated to two decimals so they never sum above 100
func applyPercentages(reports []core.CategoryReport, total core.Money) {
	for i := range reports {
		reports[i].Percentage = Percentage(reports[i].Expense, total)
	}
}

// Percentage is 100*part/total truncated to two decimals, 0 when total is 0.
func Percentage(part, total core.Money) core.Percent {
	if total.Cents == 0 {
		return core.Percent{Decimal: decimal.Zero}
	}
	q, _ := decimal.NewFromInt(part.Cents).Mul(hundred).
		QuoRem(decimal.NewFromInt(total.Cents), 2)
	return core.Percent{Decimal: q}
}

// RankByExpense sorts by expense descending, category id ascending on ties,
// and keeps at most limit entries. The input is not modified.
func RankByExpense(reports []core.CategoryReport, limit int) []core.CategoryReport {
	out := slices.Clone(reports)
	slices.SortFunc(out, func(a, b core.CategoryReport) int {
		if c := cmp.Compare(b.Expense.Cents, a.Expense.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryID, b.CategoryID)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []core.CategoryReport{}
	}
	return out
}

// TopCategories ranks, truncates, and recomputes percentages over the
// returned set.
func TopCategories(reports []core.CategoryReport, limit int) []core.CategoryReport {
	top := RankByExpense(reports, limit)
	ApplyPercentages(top)
	return top
}

// ByMonth always returns twelve entries, January first. Missing months are
// zero.
func ByMonth(rows []core.MonthTypeTotal, year int) []core.MonthlyReport {
	out := make([]core.MonthlyReport, 12)
	for i := range out {
		out[i] = core.MonthlyReport{Month: i + 1, Year: year}
	}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		m := &out[r.Month-1]
		switch r.Type {
		case core.Income:
			m.Income = m.Income.Add(r.Total)
		case core.Expense:
			m.Expense = m.Expense.Add(r.Total)
		}
		m.TransactionCount += r.Count
	}
	for i := range out {
		out[i].Balance = out[i].Income.Sub(out[i].Expense)
	}
	return out
}

// ByDay returns one trend entry per calendar day of the bounded range r.
// Rows outside r are ignored.
func ByDay(rows []core.DayTypeTotal, r core.DateRange) []core.DailyTrend {
	n := r.Days()
	out := make([]core.DailyTrend, n)
	for i := range out {
		out[i].Date = r.Start.AddDays(i)
	}
	for _, row := range rows {
		if !r.Contains(row.Date) {
			continue
		}
		d := &out[dayIndex(r.Start, row.Date)]
		switch row.Type {
		case core.Income:
			d.Income = d.Income.Add(row.Total)
		case core.Expense:
			d.Expense = d.Expense.Add(row.Total)
		}
	}
	for i := range out {
		out[i].Balance = out[i].Income.Sub(out[i].Expense)
	}
	return out
}

func dayIndex(start, d core.Date) int {
	return int(d.Sub(start.Time).Hours() / 24)
}
