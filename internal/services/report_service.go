package services

import (
	"context"
	"time"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// ReportService answers the read-only aggregation queries behind the
// dashboard and trend views. It never mutates state, so it runs outside
// transactions against the plain connection.
type ReportService struct {
	repo *storage.SQLiteRepository
}

func NewReportService(repo *storage.SQLiteRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Dashboard assembles the month's summary: wallet totals split into liquid
// balance and investment, income/expense totals, the aggregate budget
// position across expense categories and a zero-filled daily expense series.
func (s *ReportService) Dashboard(ctx context.Context, month, year int) (core.DashboardSummary, error) {
	if !core.ValidMonth(month) {
		return core.DashboardSummary{}, core.ErrInvalidMonth
	}
	q := s.repo.Queries()

	wallets, err := q.SumWalletBalances(ctx)
	if err != nil {
		return core.DashboardSummary{}, err
	}
	totals, err := q.SumMonthTotals(ctx, month, year)
	if err != nil {
		return core.DashboardSummary{}, err
	}
	categories, err := q.ListExpenseCategories(ctx)
	if err != nil {
		return core.DashboardSummary{}, err
	}

	var limit, used int64
	for _, c := range categories {
		limit += c.BudgetLimit.Cents
		spent, err := q.SumCategoryExpensesInMonth(ctx, c.ID, month, year)
		if err != nil {
			return core.DashboardSummary{}, err
		}
		used += spent
	}

	daily, err := s.dailyExpenses(ctx, q, month, year)
	if err != nil {
		return core.DashboardSummary{}, err
	}

	return core.DashboardSummary{
		Month:       month,
		Year:        year,
		Balance:     core.Money{Cents: wallets.LiquidCents},
		Investment:  core.Money{Cents: wallets.InvestmentCents},
		Income:      core.Money{Cents: totals.IncomeCents},
		Expense:     core.Money{Cents: totals.ExpenseCents},
		BudgetLimit: core.Money{Cents: limit},
		BudgetUsed:  core.Money{Cents: used},
		Daily:       daily,
	}, nil
}

// dailyExpenses builds one entry per calendar day of the month, zero where
// nothing was spent, so charts never have to interpolate gaps.
func (s *ReportService) dailyExpenses(ctx context.Context, q *storage.Queries, month, year int) ([]core.DailyAmount, error) {
	rows, err := q.DailyExpenseTotals(ctx, month, year)
	if err != nil {
		return nil, err
	}
	byDay := make(map[int]int64, len(rows))
	for _, r := range rows {
		d, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, err
		}
		byDay[d.Day()] = r.TotalCents
	}

	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	daily := make([]core.DailyAmount, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		daily[d-1] = core.DailyAmount{
			Day:    d,
			Amount: core.Money{Cents: byDay[d]},
		}
	}
	return daily, nil
}

// ListBudgets returns the per-category budget status for a month, one row
// per expense category.
func (s *ReportService) ListBudgets(ctx context.Context, month, year int) ([]core.CategoryBudget, error) {
	if !core.ValidMonth(month) {
		return nil, core.ErrInvalidMonth
	}
	q := s.repo.Queries()

	categories, err := q.ListExpenseCategories(ctx)
	if err != nil {
		return nil, err
	}
	budgets := make([]core.CategoryBudget, 0, len(categories))
	for _, c := range categories {
		status, err := budgetStatus(ctx, q, c, month, year)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, core.CategoryBudget{
			ID:        c.ID,
			Name:      c.Name,
			Icon:      c.Icon,
			Type:      c.Type,
			IsSavings: c.IsSavings,
			Limit:     status.Limit,
			Rollover:  status.Rollover,
			Spent:     status.Spent,
			Remaining: status.Remaining,
		})
	}
	return budgets, nil
}

// MonthlyTrend returns 12 income/expense totals for a year, zero-filled for
// months with no activity.
func (s *ReportService) MonthlyTrend(ctx context.Context, year int) ([]core.MonthlyAmount, error) {
	rows, err := s.repo.Queries().MonthlyTotals(ctx, year)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[int]core.MonthlyAmount, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = core.MonthlyAmount{
			Month:   r.Month,
			Income:  core.Money{Cents: r.IncomeCents},
			Expense: core.Money{Cents: r.ExpenseCents},
		}
	}

	trend := make([]core.MonthlyAmount, 12)
	for m := 1; m <= 12; m++ {
		if r, ok := byMonth[m]; ok {
			trend[m-1] = r
			continue
		}
		trend[m-1] = core.MonthlyAmount{Month: m}
	}
	return trend, nil
}

// ListTransactions returns the newest transactions with category and wallet
// names joined in. Limit defaults to 100.
func (s *ReportService) ListTransactions(ctx context.Context, limit int) ([]storage.TransactionWithRefs, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.Queries().ListTransactions(ctx, int64(limit))
}

func (s *ReportService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.Queries().GetTransaction(ctx, id)
}

func (s *ReportService) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	return s.repo.Queries().ListWallets(ctx)
}

func (s *ReportService) GetWallet(ctx context.Context, id int64) (core.Wallet, error) {
	return s.repo.Queries().GetWallet(ctx, id)
}

func (s *ReportService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.repo.Queries().ListCategories(ctx)
}
