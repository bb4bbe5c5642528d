// Package worker holds the background processes: the spreadsheet export
// consumer and the month-boundary rollover loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/export"
	"dompet/internal/storage"
)

// ExportWorker mirrors created transactions to an external spreadsheet,
// driven by ledger change events.
type ExportWorker struct {
	repo     *storage.SQLiteRepository
	appender export.TransactionAppender
}

func NewExportWorker(repo *storage.SQLiteRepository, appender export.TransactionAppender) *ExportWorker {
	return &ExportWorker{
		repo:     repo,
		appender: appender,
	}
}

// HandleLedgerEvent processes one event from the queue. Only transaction
// creations are exported; other entities and actions are refresh hints for
// other consumers and are acked without work. A transaction deleted before
// the event is consumed is not an error.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Entity != amqp.EntityTransaction || msg.Action != amqp.ActionCreated {
		slog.DebugContext(ctx, "Skipping ledger event",
			"entity", msg.Entity, "action", msg.Action, "id", msg.ID)
		return nil
	}

	slog.InfoContext(ctx, "Exporting transaction", "id", msg.ID)

	q := w.repo.Queries()
	t, err := q.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrTransactionNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("load transaction %d: %w", msg.ID, err)
	}

	row := export.TransactionRow{
		Date:        t.Date.String(),
		Type:        string(t.Type),
		Description: t.Description,
		Amount:      t.Amount.Units(),
	}
	if t.CategoryID != nil {
		category, err := q.GetCategory(ctx, *t.CategoryID)
		if err != nil && !errors.Is(err, core.ErrCategoryNotFound) {
			return fmt.Errorf("load category %d: %w", *t.CategoryID, err)
		}
		row.Category = category.Name
	}
	if t.WalletID != nil {
		wallet, err := q.GetWallet(ctx, *t.WalletID)
		if err != nil && !errors.Is(err, core.ErrWalletNotFound) {
			return fmt.Errorf("load wallet %d: %w", *t.WalletID, err)
		}
		row.Wallet = wallet.Name
	}

	ref, err := w.appender.AppendTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("append transaction %d: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", msg.ID,
		"sheets_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}
