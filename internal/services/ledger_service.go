// Package services holds the ledger core: every state transition that touches
// money goes through LedgerService, each operation as a single database
// transaction so a failure can never leave wallets, budget limits and the
// transaction log disagreeing with each other.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/storage"
)

// TransferDirection selects the mode of a wallet-budget transfer.
type TransferDirection string

const (
	// FundBudget moves wallet money into a category's budget: the wallet
	// shrinks, and the category's limit and spent both rise by the amount.
	FundBudget TransferDirection = "fund"
	// WithdrawBudget pulls unspent budget back into a wallet, lowering the
	// category's limit (floored at zero).
	WithdrawBudget TransferDirection = "withdraw"
)

type LedgerService struct {
	repo   *storage.SQLiteRepository
	events *amqp.Client // nil when AMQP is not configured
}

func NewLedgerService(repo *storage.SQLiteRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		repo:   repo,
		events: events,
	}
}

// CreateTransactionInput carries a new transaction plus the caller's answer
// to a prior Deficit signal: AllowOverage commits despite the shortfall,
// SourceCategoryID funds the shortfall from another category first.
type CreateTransactionInput struct {
	Type             core.TransactionType
	Amount           core.Money
	CategoryID       *int64
	WalletID         *int64
	Date             core.Date
	Description      string
	AllowOverage     bool
	SourceCategoryID *int64
}

// TransactionSnapshot is the caller's view of a transaction before an edit,
// used as an optimistic concurrency guard.
type TransactionSnapshot struct {
	Type       core.TransactionType
	Amount     core.Money
	CategoryID *int64
	WalletID   *int64
	Date       core.Date
}

// EditTransactionInput is the replacement field set for an edit.
type EditTransactionInput struct {
	Type        core.TransactionType
	Amount      core.Money
	CategoryID  *int64
	WalletID    *int64
	Date        core.Date
	Description string
}

// CreateTransaction inserts a transaction and applies its effects in one
// database transaction. For expenses against a budgeted category it first
// checks the remaining budget and returns *core.DeficitError carrying the
// shortfall unless the caller allowed the overage or named a source category
// to pull the shortfall from.
func (s *LedgerService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (core.Transaction, error) {
	candidate := core.Transaction{
		Type:        in.Type,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		WalletID:    in.WalletID,
		Date:        in.Date,
		Description: in.Description,
	}
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		if in.WalletID != nil {
			if _, err := q.GetWallet(ctx, *in.WalletID); err != nil {
				return err
			}
		}
		var category *core.Category
		if in.CategoryID != nil {
			c, err := q.GetCategory(ctx, *in.CategoryID)
			if err != nil {
				return err
			}
			category = &c
		}

		if in.Type == core.TransactionExpense && category != nil &&
			category.Type == core.CategoryExpense && !in.AllowOverage {
			status, err := budgetStatus(ctx, q, *category, int(in.Date.Month()), in.Date.Year())
			if err != nil {
				return err
			}
			if in.Amount.Cents > status.Remaining.Cents {
				shortfall := in.Amount.Sub(status.Remaining)
				if in.SourceCategoryID == nil {
					return &core.DeficitError{Shortfall: shortfall}
				}
				// Cover the shortfall from the source category before the
				// expense lands, all inside this same transaction.
				if err := transferBudgetTx(ctx, q, *in.SourceCategoryID, *category, shortfall, in.Date); err != nil {
					return err
				}
			}
		}

		var err error
		created, err = q.CreateTransaction(ctx, storage.CreateTransactionParams{
			Type:        in.Type,
			AmountCents: in.Amount.Cents,
			CategoryID:  in.CategoryID,
			WalletID:    in.WalletID,
			Date:        in.Date,
			Description: in.Description,
		})
		if err != nil {
			return err
		}
		return applyEffects(ctx, q, created, category)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishEvent(ctx, amqp.EntityTransaction, amqp.ActionCreated, created.ID)
	return created, nil
}

// EditTransaction reverses the stored transaction's effects, persists the new
// field values and applies the new effects, atomically. When old is non-nil
// it must match the stored row, otherwise the edit fails with
// core.ErrStaleSnapshot.
func (s *LedgerService) EditTransaction(ctx context.Context, id int64, old *TransactionSnapshot, in EditTransactionInput) (core.Transaction, error) {
	candidate := core.Transaction{
		Type:        in.Type,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		WalletID:    in.WalletID,
		Date:        in.Date,
		Description: in.Description,
	}
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		stored, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old != nil && !old.matches(stored) {
			return core.ErrStaleSnapshot
		}

		oldCategory, err := categoryFor(ctx, q, stored.CategoryID)
		if err != nil {
			return err
		}
		if err := reverseEffects(ctx, q, stored, oldCategory); err != nil {
			return err
		}

		if in.WalletID != nil {
			if _, err := q.GetWallet(ctx, *in.WalletID); err != nil {
				return err
			}
		}
		newCategory, err := categoryFor(ctx, q, in.CategoryID)
		if err != nil {
			return err
		}

		if err := q.UpdateTransaction(ctx, storage.UpdateTransactionParams{
			ID:          id,
			Type:        in.Type,
			AmountCents: in.Amount.Cents,
			CategoryID:  in.CategoryID,
			WalletID:    in.WalletID,
			Date:        in.Date,
			Description: in.Description,
		}); err != nil {
			return err
		}

		updated = candidate
		updated.ID = id
		updated.CreatedAt = stored.CreatedAt
		return applyEffects(ctx, q, updated, newCategory)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishEvent(ctx, amqp.EntityTransaction, amqp.ActionUpdated, id)
	return updated, nil
}

// DeleteTransaction reverses the stored transaction's effects and removes the
// record, atomically.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		stored, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		category, err := categoryFor(ctx, q, stored.CategoryID)
		if err != nil {
			return err
		}
		if err := reverseEffects(ctx, q, stored, category); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

// TransferBudget moves budget headroom between two categories: a walletless
// expense is recorded against the source (so it counts as source spend
// without touching any wallet) and the target's limit rises by the amount.
func (s *LedgerService) TransferBudget(ctx context.Context, sourceID, targetID int64, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}

	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		target, err := q.GetCategory(ctx, targetID)
		if err != nil {
			return err
		}
		return transferBudgetTx(ctx, q, sourceID, target, amount, core.Today())
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.EntityCategory, amqp.ActionUpdated, targetID)
	return nil
}

// TransferWalletBudget moves money between a wallet and a category budget.
// Fund mode deliberately leaves the category's remaining unchanged: the
// deposit raises the limit by exactly what it records as spend, relabeling
// wallet cash as already-consumed budget. Withdraw mode requires the limit
// to cover the amount.
func (s *LedgerService) TransferWalletBudget(ctx context.Context, walletID, categoryID int64, amount core.Money, direction TransferDirection) error {
	if err := amount.Validate(); err != nil {
		return err
	}

	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetWallet(ctx, walletID); err != nil {
			return err
		}
		category, err := q.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}

		switch direction {
		case FundBudget:
			// No wallet-balance pre-check here; the wallet may go negative,
			// matching the reference behavior.
			if _, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
				Type:        core.TransactionExpense,
				AmountCents: amount.Cents,
				CategoryID:  &categoryID,
				WalletID:    &walletID,
				Date:        core.Today(),
				Description: "Top up anggaran " + category.Name,
			}); err != nil {
				return err
			}
			if err := q.AddWalletBalance(ctx, walletID, -amount.Cents); err != nil {
				return err
			}
			return q.AddCategoryLimit(ctx, categoryID, amount.Cents)

		case WithdrawBudget:
			if amount.Cents > category.BudgetLimit.Cents {
				return core.ErrInsufficientBudget
			}
			if _, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
				Type:        core.TransactionIncome,
				AmountCents: amount.Cents,
				CategoryID:  &categoryID,
				WalletID:    &walletID,
				Date:        core.Today(),
				Description: "Penarikan dana anggaran " + category.Name,
			}); err != nil {
				return err
			}
			if err := q.AddWalletBalance(ctx, walletID, amount.Cents); err != nil {
				return err
			}
			return q.AddCategoryLimit(ctx, categoryID, -amount.Cents)

		default:
			return fmt.Errorf("%w: transfer direction %q", core.ErrInvalidTransaction, direction)
		}
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.EntityWallet, amqp.ActionUpdated, walletID)
	return nil
}

// Rollover carries unspent budget from one month into another: for every
// expense category, remaining = max(0, limit + rollover(from) - spent(from)),
// and the target month's rollover rows are replaced wholesale. Delete-then-
// insert makes repeat runs with the same arguments idempotent.
func (s *LedgerService) Rollover(ctx context.Context, fromMonth, fromYear, toMonth, toYear int) error {
	if !core.ValidMonth(fromMonth) || !core.ValidMonth(toMonth) {
		return core.ErrInvalidMonth
	}

	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		categories, err := q.ListExpenseCategories(ctx)
		if err != nil {
			return err
		}
		if err := q.DeleteRolloversForMonth(ctx, toMonth, toYear); err != nil {
			return err
		}
		for _, c := range categories {
			rollover, err := q.GetRolloverAmount(ctx, c.ID, fromMonth, fromYear)
			if err != nil {
				return err
			}
			spent, err := q.SumCategoryExpensesInMonth(ctx, c.ID, fromMonth, fromYear)
			if err != nil {
				return err
			}
			remaining := c.BudgetLimit.Cents + rollover - spent
			if remaining <= 0 {
				continue
			}
			if err := q.CreateRollover(ctx, storage.CreateRolloverParams{
				CategoryID:  c.ID,
				Month:       toMonth,
				Year:        toYear,
				AmountCents: remaining,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget rollover completed",
		"from_month", fromMonth, "from_year", fromYear,
		"to_month", toMonth, "to_year", toYear)
	s.publishEvent(ctx, amqp.EntityRollover, amqp.ActionCreated, 0)
	return nil
}

// GetBudgetStatus computes limit + rollover - spent for a category and month.
func (s *LedgerService) GetBudgetStatus(ctx context.Context, categoryID int64, month, year int) (core.BudgetStatus, error) {
	if !core.ValidMonth(month) {
		return core.BudgetStatus{}, core.ErrInvalidMonth
	}
	q := s.repo.Queries()
	category, err := q.GetCategory(ctx, categoryID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return budgetStatus(ctx, q, category, month, year)
}

// CreateWallet creates a wallet with an initial balance.
func (s *LedgerService) CreateWallet(ctx context.Context, name string, kind core.WalletKind, initial core.Money) (core.Wallet, error) {
	w := core.Wallet{Name: name, Kind: kind, Balance: initial}
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	if initial.Cents < 0 {
		return core.Wallet{}, core.ErrInvalidAmount
	}

	created, err := s.repo.Queries().CreateWallet(ctx, storage.CreateWalletParams{
		Name:         name,
		Kind:         kind,
		BalanceCents: initial.Cents,
	})
	if err != nil {
		return core.Wallet{}, err
	}

	s.publishEvent(ctx, amqp.EntityWallet, amqp.ActionCreated, created.ID)
	return created, nil
}

// CreateCategory creates a budget category.
func (s *LedgerService) CreateCategory(ctx context.Context, name, icon string, categoryType core.CategoryType, limit core.Money) (core.Category, error) {
	c := core.Category{Name: name, Icon: icon, Type: categoryType, BudgetLimit: limit}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.repo.Queries().CreateCategory(ctx, storage.CreateCategoryParams{
		Name:             name,
		Icon:             icon,
		Type:             categoryType,
		BudgetLimitCents: limit.Cents,
	})
	if err != nil {
		return core.Category{}, err
	}

	s.publishEvent(ctx, amqp.EntityCategory, amqp.ActionCreated, created.ID)
	return created, nil
}

// UpdateCategory replaces a category's name, icon, type and budget limit.
// The savings flag stays as seeded.
func (s *LedgerService) UpdateCategory(ctx context.Context, id int64, name, icon string, categoryType core.CategoryType, limit core.Money) (core.Category, error) {
	c := core.Category{Name: name, Icon: icon, Type: categoryType, BudgetLimit: limit}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	var updated core.Category
	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return err
		}
		if err := q.UpdateCategory(ctx, storage.UpdateCategoryParams{
			ID:               id,
			Name:             name,
			Icon:             icon,
			Type:             categoryType,
			BudgetLimitCents: limit.Cents,
		}); err != nil {
			return err
		}
		var err error
		updated, err = q.GetCategory(ctx, id)
		return err
	})
	if err != nil {
		return core.Category{}, err
	}

	s.publishEvent(ctx, amqp.EntityCategory, amqp.ActionUpdated, id)
	return updated, nil
}

// DeleteCategory removes a category that no transaction references.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.repo.WithinTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return err
		}
		count, err := q.CountTransactionsByCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return core.ErrCategoryInUse
		}
		return q.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

func (s *LedgerService) publishEvent(ctx context.Context, entity, action string, id int64) {
	if s.events == nil {
		return
	}
	// Best effort: the event is a refresh hint, never a correctness
	// mechanism, so a publish failure must not fail the operation.
	if err := s.events.PublishLedgerEvent(ctx, entity, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}

func (snap *TransactionSnapshot) matches(stored core.Transaction) bool {
	return snap.Type == stored.Type &&
		snap.Amount == stored.Amount &&
		sameRef(snap.CategoryID, stored.CategoryID) &&
		sameRef(snap.WalletID, stored.WalletID) &&
		snap.Date.Equal(stored.Date.Time)
}

func sameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func categoryFor(ctx context.Context, q *storage.Queries, id *int64) (*core.Category, error) {
	if id == nil {
		return nil, nil
	}
	c, err := q.GetCategory(ctx, *id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// applyEffects applies a transaction's derived side effects: the wallet
// balance shift, and the savings-category limit credit for income.
func applyEffects(ctx context.Context, q *storage.Queries, t core.Transaction, category *core.Category) error {
	if t.WalletID != nil {
		delta := t.Amount.Cents
		if t.Type == core.TransactionExpense {
			delta = -delta
		}
		if err := q.AddWalletBalance(ctx, *t.WalletID, delta); err != nil {
			return err
		}
	}
	if t.Type == core.TransactionIncome && category != nil && category.IsSavings {
		return q.AddCategoryLimit(ctx, category.ID, t.Amount.Cents)
	}
	return nil
}

// reverseEffects undoes exactly what applyEffects did for t.
func reverseEffects(ctx context.Context, q *storage.Queries, t core.Transaction, category *core.Category) error {
	if t.WalletID != nil {
		delta := t.Amount.Cents
		if t.Type == core.TransactionIncome {
			delta = -delta
		}
		if err := q.AddWalletBalance(ctx, *t.WalletID, delta); err != nil {
			return err
		}
	}
	if t.Type == core.TransactionIncome && category != nil && category.IsSavings {
		return q.AddCategoryLimit(ctx, category.ID, -t.Amount.Cents)
	}
	return nil
}

// transferBudgetTx is TransferBudget inside an already-open transaction: a
// walletless expense against the source, plus a limit raise on the target.
func transferBudgetTx(ctx context.Context, q *storage.Queries, sourceID int64, target core.Category, amount core.Money, date core.Date) error {
	source, err := q.GetCategory(ctx, sourceID)
	if err != nil {
		return err
	}
	if _, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
		Type:        core.TransactionExpense,
		AmountCents: amount.Cents,
		CategoryID:  &source.ID,
		Date:        date,
		Description: "Transfer anggaran ke " + target.Name,
	}); err != nil {
		return err
	}
	return q.AddCategoryLimit(ctx, target.ID, amount.Cents)
}

// budgetStatus is the single source of truth for a category's headroom.
func budgetStatus(ctx context.Context, q *storage.Queries, category core.Category, month, year int) (core.BudgetStatus, error) {
	rollover, err := q.GetRolloverAmount(ctx, category.ID, month, year)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	spent, err := q.SumCategoryExpensesInMonth(ctx, category.ID, month, year)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.BudgetStatus{
		CategoryID: category.ID,
		Month:      month,
		Year:       year,
		Limit:      category.BudgetLimit,
		Rollover:   core.Money{Cents: rollover},
		Spent:      core.Money{Cents: spent},
		Remaining:  category.BudgetLimit.Add(core.Money{Cents: rollover}).Sub(core.Money{Cents: spent}),
	}, nil
}
