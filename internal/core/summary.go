package core

// BudgetStatus is a category's monthly headroom:
// Remaining = Limit + Rollover - Spent. Remaining may be negative when the
// category is overspent.
type BudgetStatus struct {
	CategoryID int64
	Month      int
	Year       int
	Limit      Money
	Rollover   Money
	Spent      Money
	Remaining  Money
}

// CategoryBudget is a category joined with its budget status for a month,
// as rendered by the budget page.
type CategoryBudget struct {
	ID        int64
	Name      string
	Icon      string
	Type      CategoryType
	IsSavings bool
	Limit     Money
	Rollover  Money
	Spent     Money
	Remaining Money
}

// DailyAmount is one point of the dashboard's daily expense series.
type DailyAmount struct {
	Day    int
	Amount Money
}

// MonthlyAmount is one bar of the yearly trend chart.
type MonthlyAmount struct {
	Month   int
	Income  Money
	Expense Money
}

// DashboardSummary aggregates the month for the dashboard page. Balance sums
// non-investment wallets only; Expense excludes walletless budget-transfer
// transactions, which move no real money.
type DashboardSummary struct {
	Month       int
	Year        int
	Balance     Money
	Investment  Money
	Income      Money
	Expense     Money
	BudgetLimit Money
	BudgetUsed  Money
	Daily       []DailyAmount
}
