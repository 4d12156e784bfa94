package core

type (
	Summary struct {
		TotalIncome      Money `json:"totalIncome"`
		TotalExpense     Money `json:"totalExpense"`
		Balance          Money `json:"balance"`
		TransactionCount int   `json:"transactionCount"`
	}

	CategoryReport struct {
		CategoryID       string  `json:"categoryId"`
		CategoryName     string  `json:"categoryName"`
		CategoryColor    string  `json:"categoryColor"`
		Income           Money   `json:"income"`
		Expense          Money   `json:"expense"`
		TransactionCount int     `json:"transactionCount"`
		Percentage       Percent `json:"percentage"`
	}

	MonthlyReport struct {
		Month            int   `json:"month"` // 1-12
		Year             int   `json:"year"`
		Income           Money `json:"income"`
		Expense          Money `json:"expense"`
		Balance          Money `json:"balance"`
		TransactionCount int   `json:"transactionCount"`
	}

	DailyTrend struct {
		Date    Date  `json:"date"`
		Income  Money `json:"income"`
		Expense Money `json:"expense"`
		Balance Money `json:"balance"`
	}

	YearlyReport struct {
		Year int `json:"year"`
		Summary
		MonthlyData   []MonthlyReport  `json:"monthlyData"`
		TopCategories []CategoryReport `json:"topCategories"`
	}

	DateRangeReport struct {
		StartDate         Date             `json:"startDate"`
		EndDate           Date             `json:"endDate"`
		Summary           Summary          `json:"summary"`
		CategoryBreakdown []CategoryReport `json:"categoryBreakdown"`
		DailyTrends       []DailyTrend     `json:"dailyTrends"`
	}
)

// Grouped rows returned by the store. Amounts are summed per type.
type (
	MonthTypeTotal struct {
		Month int
		Type  TransactionType
		Total Money
		Count int
	}

	CategoryTypeTotal struct {
		CategoryID    string // empty for uncategorized rows
		CategoryName  string
		CategoryColor string
		Type          TransactionType
		Total         Money
		Count         int
	}

	DayTypeTotal struct {
		Date  Date
		Type  TransactionType
		Total Money
	}
)
