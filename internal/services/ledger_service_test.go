package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dompet/internal/core"
	"dompet/internal/storage"
)

func newTestLedger(t *testing.T) (*LedgerService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return NewLedgerService(repo, nil), repo
}

func walletBalance(t *testing.T, repo *storage.SQLiteRepository, id int64) int64 {
	t.Helper()
	w, err := repo.Queries().GetWallet(context.Background(), id)
	if err != nil {
		t.Fatalf("get wallet %d: %v", id, err)
	}
	return w.Balance.Cents
}

func categoryLimit(t *testing.T, repo *storage.SQLiteRepository, id int64) int64 {
	t.Helper()
	c, err := repo.Queries().GetCategory(context.Background(), id)
	if err != nil {
		t.Fatalf("get category %d: %v", id, err)
	}
	return c.BudgetLimit.Cents
}

func TestCreateTransactionMovesWalletBalance(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	c, err := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 500000})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	tx1, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 30000},
		CategoryID: &c.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 5), Description: "groceries",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := walletBalance(t, repo, w.ID); got != 70000 {
		t.Fatalf("expected balance 70000, got %d", got)
	}

	tx2, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 20000},
		CategoryID: &c.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 6), Description: "snacks",
	})
	if err != nil {
		t.Fatalf("create second expense: %v", err)
	}
	if got := walletBalance(t, repo, w.ID); got != 50000 {
		t.Fatalf("expected balance 50000, got %d", got)
	}

	// deleting both replays the effects in reverse
	if err := svc.DeleteTransaction(ctx, tx2.ID); err != nil {
		t.Fatalf("delete tx2: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx1.ID); err != nil {
		t.Fatalf("delete tx1: %v", err)
	}
	if got := walletBalance(t, repo, w.ID); got != 100000 {
		t.Fatalf("expected balance restored to 100000, got %d", got)
	}
}

func TestCreateTransactionDeficitSignal(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 1000000})
	c, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 200000})

	in := CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 250000},
		CategoryID: &c.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 10), Description: "big purchase",
	}

	_, err := svc.CreateTransaction(ctx, in)
	var deficit *core.DeficitError
	if !errors.As(err, &deficit) {
		t.Fatalf("expected DeficitError, got %v", err)
	}
	if deficit.Shortfall.Cents != 50000 {
		t.Fatalf("expected shortfall 50000, got %d", deficit.Shortfall.Cents)
	}

	// nothing must have been committed
	if got := walletBalance(t, repo, w.ID); got != 1000000 {
		t.Errorf("wallet touched despite deficit: %d", got)
	}
	items, _ := repo.Queries().ListTransactions(ctx, 10)
	if len(items) != 0 {
		t.Errorf("expected no transactions, got %d", len(items))
	}

	// caller accepts the overage
	in.AllowOverage = true
	if _, err := svc.CreateTransaction(ctx, in); err != nil {
		t.Fatalf("create with overage: %v", err)
	}
	if got := walletBalance(t, repo, w.ID); got != 750000 {
		t.Errorf("expected balance 750000, got %d", got)
	}
}

func TestCreateTransactionPullsDeficitFromSource(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 1000000})
	food, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 200000})
	fun, _ := svc.CreateCategory(ctx, "Fun", "", core.CategoryExpense, core.Money{Cents: 300000})

	_, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 250000},
		CategoryID: &food.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 10), Description: "big purchase",
		SourceCategoryID: &fun.ID,
	})
	if err != nil {
		t.Fatalf("create with source category: %v", err)
	}

	// food's limit grew by the shortfall, and its spend equals the expense
	if got := categoryLimit(t, repo, food.ID); got != 250000 {
		t.Errorf("expected food limit 250000, got %d", got)
	}
	status, err := svc.GetBudgetStatus(ctx, food.ID, 1, 2024)
	if err != nil {
		t.Fatalf("budget status: %v", err)
	}
	if status.Spent.Cents != 250000 {
		t.Errorf("expected food spent 250000, got %d", status.Spent.Cents)
	}
	if status.Remaining.Cents != 0 {
		t.Errorf("expected food remaining 0, got %d", status.Remaining.Cents)
	}

	// fun carries the shortfall as a walletless spend
	funStatus, _ := svc.GetBudgetStatus(ctx, fun.ID, 1, 2024)
	if funStatus.Spent.Cents != 50000 {
		t.Errorf("expected fun spent 50000, got %d", funStatus.Spent.Cents)
	}
	if funStatus.Remaining.Cents != 250000 {
		t.Errorf("expected fun remaining 250000, got %d", funStatus.Remaining.Cents)
	}

	// only the real expense moved wallet money
	if got := walletBalance(t, repo, w.ID); got != 750000 {
		t.Errorf("expected balance 750000, got %d", got)
	}
}

func TestTransferBudget(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	src, _ := svc.CreateCategory(ctx, "Fun", "", core.CategoryExpense, core.Money{Cents: 300000})
	dst, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 200000})

	if err := svc.TransferBudget(ctx, src.ID, dst.ID, core.Money{Cents: 50000}); err != nil {
		t.Fatalf("transfer budget: %v", err)
	}

	if got := categoryLimit(t, repo, dst.ID); got != 250000 {
		t.Errorf("expected target limit 250000, got %d", got)
	}
	if got := categoryLimit(t, repo, src.ID); got != 300000 {
		t.Errorf("source limit must be untouched, got %d", got)
	}

	now := core.Today()
	srcStatus, _ := svc.GetBudgetStatus(ctx, src.ID, int(now.Month()), now.Year())
	if srcStatus.Spent.Cents != 50000 {
		t.Errorf("expected source spend 50000, got %d", srcStatus.Spent.Cents)
	}

	// the transfer record is a walletless expense against the source
	items, _ := repo.Queries().ListTransactions(ctx, 10)
	if len(items) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(items))
	}
	if items[0].WalletID != nil {
		t.Error("transfer transaction must not reference a wallet")
	}
	if *items[0].CategoryID != src.ID {
		t.Error("transfer transaction must reference the source category")
	}

	if err := svc.TransferBudget(ctx, src.ID, 999, core.Money{Cents: 100}); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestTransferWalletBudget(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 500000})
	c, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 200000})

	t.Run("fund", func(t *testing.T) {
		if err := svc.TransferWalletBudget(ctx, w.ID, c.ID, core.Money{Cents: 100000}, FundBudget); err != nil {
			t.Fatalf("fund: %v", err)
		}
		if got := walletBalance(t, repo, w.ID); got != 400000 {
			t.Errorf("expected balance 400000, got %d", got)
		}
		if got := categoryLimit(t, repo, c.ID); got != 300000 {
			t.Errorf("expected limit 300000, got %d", got)
		}
		// the deposit records its own amount as spend, leaving remaining as before
		now := core.Today()
		status, _ := svc.GetBudgetStatus(ctx, c.ID, int(now.Month()), now.Year())
		if status.Remaining.Cents != 200000 {
			t.Errorf("expected remaining 200000, got %d", status.Remaining.Cents)
		}
	})

	t.Run("withdraw", func(t *testing.T) {
		if err := svc.TransferWalletBudget(ctx, w.ID, c.ID, core.Money{Cents: 50000}, WithdrawBudget); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if got := walletBalance(t, repo, w.ID); got != 450000 {
			t.Errorf("expected balance 450000, got %d", got)
		}
		if got := categoryLimit(t, repo, c.ID); got != 250000 {
			t.Errorf("expected limit 250000, got %d", got)
		}
	})

	t.Run("withdraw more than limit", func(t *testing.T) {
		err := svc.TransferWalletBudget(ctx, w.ID, c.ID, core.Money{Cents: 9999999}, WithdrawBudget)
		if !errors.Is(err, core.ErrInsufficientBudget) {
			t.Fatalf("expected ErrInsufficientBudget, got %v", err)
		}
		if got := walletBalance(t, repo, w.ID); got != 450000 {
			t.Errorf("wallet touched despite rejected withdraw: %d", got)
		}
	})

	t.Run("bad direction", func(t *testing.T) {
		err := svc.TransferWalletBudget(ctx, w.ID, c.ID, core.Money{Cents: 100}, "sideways")
		if !errors.Is(err, core.ErrInvalidTransaction) {
			t.Fatalf("expected ErrInvalidTransaction, got %v", err)
		}
	})
}

func TestEditTransactionReplaysEffects(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	w1, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 100000})
	w2, _ := svc.CreateWallet(ctx, "Cash", core.WalletCash, core.Money{Cents: 100000})
	c, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 500000})

	tx, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 30000},
		CategoryID: &c.ID, WalletID: &w1.ID,
		Date: core.NewDate(2024, 1, 5), Description: "groceries",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// move the expense to the other wallet with a new amount
	_, err = svc.EditTransaction(ctx, tx.ID, nil, EditTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 45000},
		CategoryID: &c.ID, WalletID: &w2.ID,
		Date: core.NewDate(2024, 1, 5), Description: "groceries",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if got := walletBalance(t, repo, w1.ID); got != 100000 {
		t.Errorf("expected old wallet restored to 100000, got %d", got)
	}
	if got := walletBalance(t, repo, w2.ID); got != 55000 {
		t.Errorf("expected new wallet at 55000, got %d", got)
	}
}

func TestEditTransactionStaleSnapshot(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 100000})

	tx, _ := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 10000},
		WalletID: &w.ID, Date: core.NewDate(2024, 1, 5), Description: "coffee",
	})

	stale := &TransactionSnapshot{
		Type:     core.TransactionExpense,
		Amount:   core.Money{Cents: 9999}, // does not match the stored row
		WalletID: &w.ID,
		Date:     core.NewDate(2024, 1, 5),
	}
	_, err := svc.EditTransaction(ctx, tx.ID, stale, EditTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 20000},
		WalletID: &w.ID, Date: core.NewDate(2024, 1, 5), Description: "coffee",
	})
	if !errors.Is(err, core.ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
	if got := walletBalance(t, repo, w.ID); got != 90000 {
		t.Errorf("expected balance unchanged at 90000, got %d", got)
	}

	// a matching snapshot goes through
	fresh := &TransactionSnapshot{
		Type:     core.TransactionExpense,
		Amount:   core.Money{Cents: 10000},
		WalletID: &w.ID,
		Date:     core.NewDate(2024, 1, 5),
	}
	if _, err := svc.EditTransaction(ctx, tx.ID, fresh, EditTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 20000},
		WalletID: &w.ID, Date: core.NewDate(2024, 1, 5), Description: "coffee",
	}); err != nil {
		t.Fatalf("edit with fresh snapshot: %v", err)
	}
	if got := walletBalance(t, repo, w.ID); got != 80000 {
		t.Errorf("expected balance 80000, got %d", got)
	}
}

func TestSavingsIncomeGrowsItsLimit(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	categories, _ := repo.Queries().ListCategories(ctx)
	var savings core.Category
	for _, c := range categories {
		if c.IsSavings {
			savings = c
		}
	}
	if savings.ID == 0 {
		t.Fatal("expected seeded savings category")
	}

	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 0})

	tx, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionIncome, Amount: core.Money{Cents: 150000},
		CategoryID: &savings.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 25), Description: "saving",
	})
	if err != nil {
		t.Fatalf("create savings income: %v", err)
	}
	if got := categoryLimit(t, repo, savings.ID); got != 150000 {
		t.Errorf("expected savings limit 150000, got %d", got)
	}
	if got := walletBalance(t, repo, w.ID); got != 150000 {
		t.Errorf("expected balance 150000, got %d", got)
	}

	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete savings income: %v", err)
	}
	if got := categoryLimit(t, repo, savings.ID); got != 0 {
		t.Errorf("expected savings limit back to 0, got %d", got)
	}
}

func TestRolloverCarriesUnspentBudget(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 1000000})
	food, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 100000})
	overspent, _ := svc.CreateCategory(ctx, "Fun", "", core.CategoryExpense, core.Money{Cents: 10000})

	if _, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 40000},
		CategoryID: &food.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 15), Description: "groceries",
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 25000},
		CategoryID: &overspent.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 20), Description: "party",
		AllowOverage: true,
	}); err != nil {
		t.Fatalf("create overspend: %v", err)
	}

	if err := svc.Rollover(ctx, 1, 2024, 2, 2024); err != nil {
		t.Fatalf("rollover: %v", err)
	}

	status, err := svc.GetBudgetStatus(ctx, food.ID, 2, 2024)
	if err != nil {
		t.Fatalf("budget status: %v", err)
	}
	if status.Rollover.Cents != 60000 {
		t.Errorf("expected rollover 60000, got %d", status.Rollover.Cents)
	}
	if status.Remaining.Cents != 160000 {
		t.Errorf("expected remaining 160000, got %d", status.Remaining.Cents)
	}

	// overspent categories carry nothing
	funStatus, _ := svc.GetBudgetStatus(ctx, overspent.ID, 2, 2024)
	if funStatus.Rollover.Cents != 0 {
		t.Errorf("overspent category must not roll over, got %d", funStatus.Rollover.Cents)
	}

	// repeat runs replace rather than accumulate
	if err := svc.Rollover(ctx, 1, 2024, 2, 2024); err != nil {
		t.Fatalf("second rollover: %v", err)
	}
	status, _ = svc.GetBudgetStatus(ctx, food.ID, 2, 2024)
	if status.Rollover.Cents != 60000 {
		t.Errorf("rollover not idempotent: got %d", status.Rollover.Cents)
	}

	// rollovers compound month over month when untouched
	if err := svc.Rollover(ctx, 2, 2024, 3, 2024); err != nil {
		t.Fatalf("chained rollover: %v", err)
	}
	status, _ = svc.GetBudgetStatus(ctx, food.ID, 3, 2024)
	if status.Rollover.Cents != 160000 {
		t.Errorf("expected compounded rollover 160000, got %d", status.Rollover.Cents)
	}

	if err := svc.Rollover(ctx, 13, 2024, 1, 2025); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, "Food", "🍜", core.CategoryExpense, core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	updated, err := svc.UpdateCategory(ctx, c.ID, "Groceries", "🛒", core.CategoryExpense, core.Money{Cents: 250000})
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Name != "Groceries" || updated.Icon != "🛒" || updated.BudgetLimit.Cents != 250000 {
		t.Errorf("unexpected updated category: %+v", updated)
	}

	stored, err := repo.Queries().GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if stored.Name != "Groceries" || stored.BudgetLimit.Cents != 250000 {
		t.Errorf("update not persisted: %+v", stored)
	}
	if stored.IsSavings {
		t.Error("savings flag changed by update")
	}

	if _, err := svc.UpdateCategory(ctx, 999, "X", "", core.CategoryExpense, core.Money{}); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
	if _, err := svc.UpdateCategory(ctx, c.ID, "", "", core.CategoryExpense, core.Money{}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if stored, _ := repo.Queries().GetCategory(ctx, c.ID); stored.Name != "Groceries" {
		t.Errorf("rejected update leaked: %+v", stored)
	}
}

func TestDeleteCategoryGuardedByReferences(t *testing.T) {
	svc, repo := newTestLedger(t)
	ctx := context.Background()

	c, _ := svc.CreateCategory(ctx, "Food", "", core.CategoryExpense, core.Money{Cents: 100000})
	w, _ := svc.CreateWallet(ctx, "Bank", core.WalletBank, core.Money{Cents: 100000})

	tx, _ := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 1000},
		CategoryID: &c.ID, WalletID: &w.ID,
		Date: core.NewDate(2024, 1, 5), Description: "x",
	})

	if err := svc.DeleteCategory(ctx, c.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}

	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := svc.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("delete unreferenced category: %v", err)
	}
	if _, err := repo.Queries().GetCategory(ctx, c.ID); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Errorf("expected category gone, got %v", err)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 0},
		Date: core.NewDate(2024, 1, 5),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	missing := int64(12345)
	_, err = svc.CreateTransaction(ctx, CreateTransactionInput{
		Type: core.TransactionExpense, Amount: core.Money{Cents: 100},
		WalletID: &missing, Date: core.NewDate(2024, 1, 5),
	})
	if !errors.Is(err, core.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}
