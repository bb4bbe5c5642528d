package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dompet/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustCreateWallet(t *testing.T, q *Queries, name string, kind core.WalletKind, cents int64) core.Wallet {
	t.Helper()
	w, err := q.CreateWallet(context.Background(), CreateWalletParams{Name: name, Kind: kind, BalanceCents: cents})
	if err != nil {
		t.Fatalf("create wallet %s: %v", name, err)
	}
	return w
}

func mustCreateCategory(t *testing.T, q *Queries, name string, typ core.CategoryType, limitCents int64) core.Category {
	t.Helper()
	c, err := q.CreateCategory(context.Background(), CreateCategoryParams{Name: name, Type: typ, BudgetLimitCents: limitCents})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func mustCreateTransaction(t *testing.T, q *Queries, arg CreateTransactionParams) core.Transaction {
	t.Helper()
	tx, err := q.CreateTransaction(context.Background(), arg)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func TestMigrationsSeedSavingsCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	categories, err := repo.Queries().ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	var savings *core.Category
	for i := range categories {
		if categories[i].IsSavings {
			savings = &categories[i]
		}
	}
	if savings == nil {
		t.Fatal("expected a seeded savings category")
	}
	if savings.Type != core.CategoryIncome {
		t.Errorf("savings category should be income type, got %s", savings.Type)
	}
	if savings.Name != "Tabungan" {
		t.Errorf("expected seeded name Tabungan, got %q", savings.Name)
	}
}

func TestWalletQueries(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	w := mustCreateWallet(t, q, "Bank", core.WalletBank, 100000)
	if w.ID == 0 {
		t.Fatal("expected assigned wallet id")
	}

	got, err := q.GetWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if got.Balance.Cents != 100000 {
		t.Errorf("expected balance 100000, got %d", got.Balance.Cents)
	}

	if err := q.AddWalletBalance(ctx, w.ID, -30000); err != nil {
		t.Fatalf("add wallet balance: %v", err)
	}
	got, _ = q.GetWallet(ctx, w.ID)
	if got.Balance.Cents != 70000 {
		t.Errorf("expected balance 70000 after delta, got %d", got.Balance.Cents)
	}

	if _, err := q.GetWallet(ctx, 999); !errors.Is(err, core.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
	if err := q.AddWalletBalance(ctx, 999, 10); !errors.Is(err, core.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound on delta, got %v", err)
	}
}

func TestSumWalletBalancesSplitsInvestment(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	mustCreateWallet(t, q, "Cash", core.WalletCash, 50000)
	mustCreateWallet(t, q, "Bank", core.WalletBank, 150000)
	mustCreateWallet(t, q, "Stocks", core.WalletInvestment, 500000)

	totals, err := q.SumWalletBalances(ctx)
	if err != nil {
		t.Fatalf("sum wallet balances: %v", err)
	}
	if totals.LiquidCents != 200000 {
		t.Errorf("expected liquid 200000, got %d", totals.LiquidCents)
	}
	if totals.InvestmentCents != 500000 {
		t.Errorf("expected investment 500000, got %d", totals.InvestmentCents)
	}
}

func TestCategoryLimitFlooredAtZero(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	c := mustCreateCategory(t, q, "Food", core.CategoryExpense, 10000)
	if err := q.AddCategoryLimit(ctx, c.ID, -25000); err != nil {
		t.Fatalf("add category limit: %v", err)
	}
	got, err := q.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if got.BudgetLimit.Cents != 0 {
		t.Errorf("expected limit floored at 0, got %d", got.BudgetLimit.Cents)
	}
}

func TestTransactionRoundTripAndNullRefs(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	c := mustCreateCategory(t, q, "Food", core.CategoryExpense, 10000)

	// walletless transaction: wallet_id stays NULL
	tx := mustCreateTransaction(t, q, CreateTransactionParams{
		Type:        core.TransactionExpense,
		AmountCents: 5000,
		CategoryID:  &c.ID,
		Date:        core.NewDate(2024, 2, 10),
		Description: "transfer",
	})

	got, err := q.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if got.WalletID != nil {
		t.Error("expected nil wallet id")
	}
	if got.CategoryID == nil || *got.CategoryID != c.ID {
		t.Error("expected category id preserved")
	}
	if got.Date.String() != "2024-02-10" {
		t.Errorf("expected date 2024-02-10, got %s", got.Date.String())
	}

	if err := q.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := q.GetTransaction(ctx, tx.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestMonthAggregatesExcludeWalletlessExpenses(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	w := mustCreateWallet(t, q, "Bank", core.WalletBank, 0)
	c := mustCreateCategory(t, q, "Food", core.CategoryExpense, 100000)

	mustCreateTransaction(t, q, CreateTransactionParams{
		Type: core.TransactionExpense, AmountCents: 30000, CategoryID: &c.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 3, 5), Description: "groceries",
	})
	// walletless budget transfer spend
	mustCreateTransaction(t, q, CreateTransactionParams{
		Type: core.TransactionExpense, AmountCents: 20000, CategoryID: &c.ID,
		Date: core.NewDate(2024, 3, 6), Description: "budget move",
	})
	mustCreateTransaction(t, q, CreateTransactionParams{
		Type: core.TransactionIncome, AmountCents: 500000, WalletID: &w.ID,
		Date: core.NewDate(2024, 3, 1), Description: "salary",
	})
	// different month, must not count
	mustCreateTransaction(t, q, CreateTransactionParams{
		Type: core.TransactionExpense, AmountCents: 70000, CategoryID: &c.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 4, 1), Description: "next month",
	})

	totals, err := q.SumMonthTotals(ctx, 3, 2024)
	if err != nil {
		t.Fatalf("sum month totals: %v", err)
	}
	if totals.IncomeCents != 500000 {
		t.Errorf("expected income 500000, got %d", totals.IncomeCents)
	}
	if totals.ExpenseCents != 30000 {
		t.Errorf("expected expense 30000 (walletless excluded), got %d", totals.ExpenseCents)
	}

	// category spend counts the walletless transfer too
	spent, err := q.SumCategoryExpensesInMonth(ctx, c.ID, 3, 2024)
	if err != nil {
		t.Fatalf("sum category expenses: %v", err)
	}
	if spent != 50000 {
		t.Errorf("expected category spend 50000, got %d", spent)
	}

	daily, err := q.DailyExpenseTotals(ctx, 3, 2024)
	if err != nil {
		t.Fatalf("daily expense totals: %v", err)
	}
	if len(daily) != 1 || daily[0].Date != "2024-03-05" || daily[0].TotalCents != 30000 {
		t.Errorf("unexpected daily totals: %+v", daily)
	}

	monthly, err := q.MonthlyTotals(ctx, 2024)
	if err != nil {
		t.Fatalf("monthly totals: %v", err)
	}
	if len(monthly) != 2 {
		t.Fatalf("expected 2 active months, got %d", len(monthly))
	}
	if monthly[0].Month != 3 || monthly[0].ExpenseCents != 30000 || monthly[0].IncomeCents != 500000 {
		t.Errorf("unexpected march totals: %+v", monthly[0])
	}
	if monthly[1].Month != 4 || monthly[1].ExpenseCents != 70000 {
		t.Errorf("unexpected april totals: %+v", monthly[1])
	}
}

func TestRolloverQueries(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	c := mustCreateCategory(t, q, "Food", core.CategoryExpense, 100000)

	amount, err := q.GetRolloverAmount(ctx, c.ID, 2, 2024)
	if err != nil {
		t.Fatalf("get rollover amount: %v", err)
	}
	if amount != 0 {
		t.Errorf("expected 0 before any rollover, got %d", amount)
	}

	if err := q.CreateRollover(ctx, CreateRolloverParams{CategoryID: c.ID, Month: 2, Year: 2024, AmountCents: 60000}); err != nil {
		t.Fatalf("create rollover: %v", err)
	}
	amount, _ = q.GetRolloverAmount(ctx, c.ID, 2, 2024)
	if amount != 60000 {
		t.Errorf("expected 60000, got %d", amount)
	}

	if err := q.DeleteRolloversForMonth(ctx, 2, 2024); err != nil {
		t.Fatalf("delete rollovers: %v", err)
	}
	amount, _ = q.GetRolloverAmount(ctx, c.ID, 2, 2024)
	if amount != 0 {
		t.Errorf("expected 0 after delete, got %d", amount)
	}
}

func TestRolloverRunBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	q := repo.Queries()
	ctx := context.Background()

	_, ok, err := q.GetRolloverRun(ctx)
	if err != nil {
		t.Fatalf("get rollover run: %v", err)
	}
	if ok {
		t.Fatal("expected no run recorded initially")
	}

	if err := q.UpsertRolloverRun(ctx, 1, 2024); err != nil {
		t.Fatalf("upsert rollover run: %v", err)
	}
	if err := q.UpsertRolloverRun(ctx, 2, 2024); err != nil {
		t.Fatalf("upsert rollover run again: %v", err)
	}

	run, ok, err := q.GetRolloverRun(ctx)
	if err != nil || !ok {
		t.Fatalf("expected recorded run, ok=%v err=%v", ok, err)
	}
	if run.Month != 2 || run.Year != 2024 {
		t.Errorf("expected 2/2024, got %d/%d", run.Month, run.Year)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w := mustCreateWallet(t, repo.Queries(), "Bank", core.WalletBank, 100000)

	wantErr := errors.New("boom")
	err := repo.WithinTx(ctx, func(q *Queries) error {
		if err := q.AddWalletBalance(ctx, w.ID, -40000); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}

	got, _ := repo.Queries().GetWallet(ctx, w.ID)
	if got.Balance.Cents != 100000 {
		t.Errorf("expected balance untouched after rollback, got %d", got.Balance.Cents)
	}
}
