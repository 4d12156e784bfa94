package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func txn(typ core.TransactionType, cents int64) core.Transaction {
	return core.Transaction{Type: typ, Amount: core.Cents(cents)}
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, core.Summary{}, s)
	})

	t.Run("mixed", func(t *testing.T) {
		s := Summarize([]core.Transaction{
			txn(core.Expense, 10000),
			txn(core.Income, 200000),
			txn(core.Expense, 1),
		})
		assert.Equal(t, int64(200000), s.TotalIncome.Cents)
		assert.Equal(t, int64(10001), s.TotalExpense.Cents)
		assert.Equal(t, s.TotalIncome.Cents-s.TotalExpense.Cents, s.Balance.Cents)
		assert.Equal(t, 3, s.TransactionCount)
	})

	t.Run("negative balance", func(t *testing.T) {
		s := Summarize([]core.Transaction{txn(core.Expense, 500)})
		assert.Equal(t, int64(-500), s.Balance.Cents)
	})
}

func TestByCategoryGroupsTypes(t *testing.T) {
	rows := []core.CategoryTypeTotal{
		{CategoryID: "b", CategoryName: "Salary", Type: core.Income, Total: core.Cents(5000), Count: 1},
		{CategoryID: "a", CategoryName: "Food", CategoryColor: "#ff6b6b", Type: core.Expense, Total: core.Cents(7500), Count: 3},
		{CategoryID: "b", CategoryName: "Salary", Type: core.Expense, Total: core.Cents(2500), Count: 1},
	}
	got := ByCategory(rows)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].CategoryID)
	assert.Equal(t, "#ff6b6b", got[0].CategoryColor)
	assert.Equal(t, int64(7500), got[0].Expense.Cents)
	assert.Equal(t, "75", got[0].Percentage.String())

	assert.Equal(t, "b", got[1].CategoryID)
	assert.Equal(t, int64(5000), got[1].Income.Cents)
	assert.Equal(t, int64(2500), got[1].Expense.Cents)
	assert.Equal(t, 2, got[1].TransactionCount)
	assert.Equal(t, "25", got[1].Percentage.String())
}

func TestByCategoryZeroExpense(t *testing.T) {
	got := ByCategory([]core.CategoryTypeTotal{
		{CategoryID: "a", Type: core.Income, Total: core.Cents(100), Count: 1},
	})
	require.Len(t, got, 1)
	assert.True(t, got[0].Percentage.IsZero())

	assert.NotNil(t, ByCategory(nil))
	assert.Empty(t, ByCategory(nil))
}

func TestByCategoryPercentagesNeverExceed100(t *testing.T) {
	cases := []struct {
		name        string
		rows        []core.CategoryTypeTotal
		wantHundred bool
	}{
		{
			name: "thirds",
			rows: []core.CategoryTypeTotal{
				{CategoryID: "a", Type: core.Expense, Total: core.Cents(100)},
				{CategoryID: "b", Type: core.Expense, Total: core.Cents(100)},
				{CategoryID: "c", Type: core.Expense, Total: core.Cents(100)},
			},
		},
		{
			name: "all categorized",
			rows: []core.CategoryTypeTotal{
				{CategoryID: "a", Type: core.Expense, Total: core.Cents(300)},
				{CategoryID: "b", Type: core.Expense, Total: core.Cents(100)},
			},
			wantHundred: true,
		},
		{
			name: "uncategorized expense",
			rows: []core.CategoryTypeTotal{
				{CategoryID: "a", Type: core.Expense, Total: core.Cents(300)},
				{CategoryID: "", Type: core.Expense, Total: core.Cents(100)},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum := decimal.Zero
			for _, r := range ByCategory(tc.rows) {
				sum = sum.Add(r.Percentage.Decimal)
			}
			assert.True(t, sum.LessThanOrEqual(decimal.NewFromInt(100)), "sum %s", sum)
			if tc.wantHundred {
				assert.True(t, sum.Equal(decimal.NewFromInt(100)), "sum %s", sum)
			} else {
				assert.True(t, sum.LessThan(decimal.NewFromInt(100)), "sum %s", sum)
			}
		})
	}
}

func TestByCategoryOmitsUncategorized(t *testing.T) {
	got := ByCategory([]core.CategoryTypeTotal{
		{CategoryID: "a", Type: core.Expense, Total: core.Cents(300)},
		{CategoryID: "", Type: core.Expense, Total: core.Cents(100)},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "75", got[0].Percentage.String())
}

func TestPercentageTruncates(t *testing.T) {
	assert.Equal(t, "66.66", Percentage(core.Cents(2), core.Cents(3)).StringFixed(2))
	assert.Equal(t, "33.33", Percentage(core.Cents(1), core.Cents(3)).StringFixed(2))
	assert.Equal(t, "0.00", Percentage(core.Cents(5), core.Cents(0)).StringFixed(2))
}

func TestTopCategories(t *testing.T) {
	reports := []core.CategoryReport{
		{CategoryID: "other", Expense: core.Cents(5000)},
		{CategoryID: "food", Expense: core.Cents(10000)},
		{CategoryID: "also-5000", Expense: core.Cents(5000)},
	}

	top := TopCategories(reports, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "food", top[0].CategoryID)
	assert.Equal(t, "100", top[0].Percentage.String())

	ranked := RankByExpense(reports, 10)
	assert.Equal(t, []string{"food", "also-5000", "other"}, []string{
		ranked[0].CategoryID, ranked[1].CategoryID, ranked[2].CategoryID,
	})
	assert.Equal(t, "other", reports[0].CategoryID, "input must not be reordered")

	assert.Empty(t, RankByExpense(reports, 0))
}

func TestByMonth(t *testing.T) {
	got := ByMonth([]core.MonthTypeTotal{
		{Month: 5, Type: core.Income, Total: core.Cents(200000), Count: 1},
		{Month: 5, Type: core.Expense, Total: core.Cents(10000), Count: 1},
		{Month: 12, Type: core.Expense, Total: core.Cents(50), Count: 2},
	}, 2024)

	require.Len(t, got, 12)
	for i, m := range got {
		assert.Equal(t, i+1, m.Month)
		assert.Equal(t, 2024, m.Year)
		assert.Equal(t, m.Income.Cents-m.Expense.Cents, m.Balance.Cents)
	}
	assert.Equal(t, int64(200000), got[4].Income.Cents)
	assert.Equal(t, int64(10000), got[4].Expense.Cents)
	assert.Equal(t, 2, got[4].TransactionCount)
	assert.Equal(t, int64(-50), got[11].Balance.Cents)
	assert.True(t, got[0].Income.IsZero() && got[0].Expense.IsZero())

	assert.Len(t, ByMonth(nil, 1999), 12)
}

func TestByDay(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2024, 2, 28), End: core.NewDate(2024, 3, 1)}
	got := ByDay([]core.DayTypeTotal{
		{Date: core.NewDate(2024, 2, 29), Type: core.Expense, Total: core.Cents(700)},
		{Date: core.NewDate(2024, 2, 29), Type: core.Income, Total: core.Cents(1000)},
		{Date: core.NewDate(2024, 3, 2), Type: core.Income, Total: core.Cents(1)},
	}, r)

	require.Len(t, got, 3)
	assert.Equal(t, "2024-02-28", got[0].Date.String())
	assert.Equal(t, "2024-02-29", got[1].Date.String())
	assert.Equal(t, "2024-03-01", got[2].Date.String())
	assert.Equal(t, int64(300), got[1].Balance.Cents)
	assert.True(t, got[0].Income.IsZero() && got[2].Income.IsZero())
}
