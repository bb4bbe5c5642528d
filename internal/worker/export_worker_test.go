package worker

import (
	"context"
	"path/filepath"
	"testing"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/export"
	"dompet/internal/storage"
)

type fakeAppender struct {
	rows []export.TransactionRow
}

func (f *fakeAppender) AppendTransaction(_ context.Context, row export.TransactionRow) (string, error) {
	f.rows = append(f.rows, row)
	return "Transactions!A1:F1", nil
}

func newTestExportWorker(t *testing.T) (*ExportWorker, *fakeAppender, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	appender := &fakeAppender{}
	return NewExportWorker(repo, appender), appender, repo
}

func TestHandleLedgerEventExportsTransaction(t *testing.T) {
	w, appender, repo := newTestExportWorker(t)
	ctx := context.Background()
	q := repo.Queries()

	wallet, err := q.CreateWallet(ctx, storage.CreateWalletParams{
		Name: "Bank", Kind: core.WalletBank, BalanceCents: 100000,
	})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	cat, err := q.CreateCategory(ctx, storage.CreateCategoryParams{
		Name: "Food", Type: core.CategoryExpense, BudgetLimitCents: 200000,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	date, _ := core.ParseDate("2024-03-10")
	tx, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
		Type: core.TransactionExpense, AmountCents: 12550,
		CategoryID: &cat.ID, WalletID: &wallet.ID,
		Date: date, Description: "groceries",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EntityTransaction, amqp.ActionCreated, tx.ID)
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(appender.rows))
	}
	row := appender.rows[0]
	if row.Date != "2024-03-10" || row.Type != "expense" || row.Description != "groceries" {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.Category != "Food" || row.Wallet != "Bank" {
		t.Errorf("expected resolved names, got category=%q wallet=%q", row.Category, row.Wallet)
	}
	if row.Amount != 125.50 {
		t.Errorf("amount = %v, want 125.50", row.Amount)
	}
}

func TestHandleLedgerEventSkipsOtherEvents(t *testing.T) {
	w, appender, _ := newTestExportWorker(t)
	ctx := context.Background()

	for _, msg := range []*amqp.LedgerEventMessage{
		amqp.NewLedgerEventMessage(amqp.EntityWallet, amqp.ActionCreated, 1),
		amqp.NewLedgerEventMessage(amqp.EntityTransaction, amqp.ActionDeleted, 1),
		amqp.NewLedgerEventMessage(amqp.EntityRollover, amqp.ActionCreated, 0),
	} {
		if err := w.HandleLedgerEvent(ctx, msg); err != nil {
			t.Errorf("HandleLedgerEvent(%s/%s): %v", msg.Entity, msg.Action, err)
		}
	}
	if len(appender.rows) != 0 {
		t.Errorf("expected no exports, got %d", len(appender.rows))
	}
}

func TestHandleLedgerEventToleratesDeletedTransaction(t *testing.T) {
	w, appender, _ := newTestExportWorker(t)

	msg := amqp.NewLedgerEventMessage(amqp.EntityTransaction, amqp.ActionCreated, 999)
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("expected missing transaction to be skipped, got %v", err)
	}
	if len(appender.rows) != 0 {
		t.Errorf("expected no exports, got %d", len(appender.rows))
	}
}
