package google

import (
	"strings"
	"time"

	"bilancio/internal/core"
)

// Sheet titles are limited to 100 characters.
const maxTitleLength = 100

func sheetTitle(base string, year int, ownerID string) string {
	title := yearPrefixedName(base, year)
	if ownerID != "" {
		title += " " + ownerID
	}
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}
	return title
}

// quoteSheet renders a title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// yearlyRows lays out a report as a totals block, one row per month and the
// top categories. Amounts are decimal strings so Sheets parses them as numbers.
func yearlyRows(ownerID string, r core.YearlyReport) [][]any {
	rows := [][]any{
		{"Owner", ownerID},
		{"Year", r.Year},
		{"Income", r.TotalIncome.String()},
		{"Expense", r.TotalExpense.String()},
		{"Balance", r.Balance.String()},
		{"Transactions", r.TransactionCount},
		{},
		{"Month", "Income", "Expense", "Balance", "Transactions"},
	}
	for _, m := range r.MonthlyData {
		rows = append(rows, []any{
			time.Month(m.Month).String(),
			m.Income.String(),
			m.Expense.String(),
			m.Balance.String(),
			m.TransactionCount,
		})
	}
	rows = append(rows, []any{}, []any{"Category", "Income", "Expense", "Percentage", "Transactions"})
	for _, c := range r.TopCategories {
		rows = append(rows, []any{
			c.CategoryName,
			c.Income.String(),
			c.Expense.String(),
			c.Percentage.StringFixed(2),
			c.TransactionCount,
		})
	}
	return rows
}
