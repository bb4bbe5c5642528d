package storage

import (
	"context"
	"database/sql"
	"fmt"

	"dompet/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run
// standalone or inside a ledger transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a query set bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// monthRange returns the [from, to) date bounds of a calendar month in the
// stored YYYY-MM-DD format.
func monthRange(month, year int) (string, string) {
	from := fmt.Sprintf("%04d-%02d-01", year, month)
	nextMonth, nextYear := month+1, year
	if nextMonth > 12 {
		nextMonth, nextYear = 1, year+1
	}
	return from, fmt.Sprintf("%04d-%02d-01", nextYear, nextMonth)
}

// --- wallets ---

type CreateWalletParams struct {
	Name         string
	Kind         core.WalletKind
	BalanceCents int64
}

func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) (core.Wallet, error) {
	w := core.Wallet{Name: arg.Name, Kind: arg.Kind, Balance: core.Money{Cents: arg.BalanceCents}}
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO wallets (name, kind, balance_cents) VALUES (?, ?, ?) RETURNING id, created_at`,
		arg.Name, string(arg.Kind), arg.BalanceCents,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("insert wallet: %w", err)
	}
	return w, nil
}

func (q *Queries) GetWallet(ctx context.Context, id int64) (core.Wallet, error) {
	var w core.Wallet
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, kind, balance_cents, created_at FROM wallets WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.Kind, &w.Balance.Cents, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return core.Wallet{}, core.ErrWalletNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("select wallet: %w", err)
	}
	return w, nil
}

func (q *Queries) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, kind, balance_cents, created_at FROM wallets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		var w core.Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.Kind, &w.Balance.Cents, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// AddWalletBalance shifts a wallet balance by delta cents, atomically in SQL
// so no read-modify-write race exists even outside a transaction.
func (q *Queries) AddWalletBalance(ctx context.Context, id, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrWalletNotFound
	}
	return nil
}

type WalletTotals struct {
	LiquidCents     int64
	InvestmentCents int64
}

func (q *Queries) SumWalletBalances(ctx context.Context) (WalletTotals, error) {
	var t WalletTotals
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind <> 'investment' THEN balance_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'investment' THEN balance_cents ELSE 0 END), 0)
		FROM wallets`).Scan(&t.LiquidCents, &t.InvestmentCents)
	if err != nil {
		return WalletTotals{}, fmt.Errorf("sum wallet balances: %w", err)
	}
	return t, nil
}

// --- categories ---

type CreateCategoryParams struct {
	Name             string
	Icon             string
	Type             core.CategoryType
	BudgetLimitCents int64
	IsSavings        bool
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (core.Category, error) {
	c := core.Category{
		Name:        arg.Name,
		Icon:        arg.Icon,
		Type:        arg.Type,
		BudgetLimit: core.Money{Cents: arg.BudgetLimitCents},
		IsSavings:   arg.IsSavings,
	}
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, icon, type, budget_limit_cents, is_savings)
		 VALUES (?, ?, ?, ?, ?) RETURNING id, created_at`,
		arg.Name, arg.Icon, string(arg.Type), arg.BudgetLimitCents, arg.IsSavings,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, icon, type, budget_limit_cents, is_savings, created_at
		 FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.Type, &c.BudgetLimit.Cents, &c.IsSavings, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("select category: %w", err)
	}
	return c, nil
}

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	return q.scanCategories(ctx,
		`SELECT id, name, icon, type, budget_limit_cents, is_savings, created_at
		 FROM categories ORDER BY name`)
}

func (q *Queries) ListExpenseCategories(ctx context.Context) ([]core.Category, error) {
	return q.scanCategories(ctx,
		`SELECT id, name, icon, type, budget_limit_cents, is_savings, created_at
		 FROM categories WHERE type = 'expense' ORDER BY name`)
}

func (q *Queries) scanCategories(ctx context.Context, query string) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Type, &c.BudgetLimit.Cents, &c.IsSavings, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// AddCategoryLimit shifts a category's budget limit by delta cents, floored
// at zero on decrease.
func (q *Queries) AddCategoryLimit(ctx context.Context, id, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET budget_limit_cents = MAX(0, budget_limit_cents + ?) WHERE id = ?`,
		deltaCents, id)
	if err != nil {
		return fmt.Errorf("update category limit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

type UpdateCategoryParams struct {
	ID               int64
	Name             string
	Icon             string
	Type             core.CategoryType
	BudgetLimitCents int64
}

// UpdateCategory replaces a category's editable fields. The is_savings flag
// is seeded by migration and never editable.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, type = ?, budget_limit_cents = ? WHERE id = ?`,
		arg.Name, arg.Icon, string(arg.Type), arg.BudgetLimitCents, arg.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

func (q *Queries) CountTransactionsByCategory(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return count, nil
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// --- transactions ---

type CreateTransactionParams struct {
	Type        core.TransactionType
	AmountCents int64
	CategoryID  *int64
	WalletID    *int64
	Date        core.Date
	Description string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (core.Transaction, error) {
	t := core.Transaction{
		Type:        arg.Type,
		Amount:      core.Money{Cents: arg.AmountCents},
		CategoryID:  arg.CategoryID,
		WalletID:    arg.WalletID,
		Date:        arg.Date,
		Description: arg.Description,
	}
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO transactions (type, amount_cents, category_id, wallet_id, date, description)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id, created_at`,
		string(arg.Type), arg.AmountCents, arg.CategoryID, arg.WalletID, arg.Date.String(), arg.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		walletID   sql.NullInt64
		date       string
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, type, amount_cents, category_id, wallet_id, date, description, created_at
		 FROM transactions WHERE id = ?`, id,
	).Scan(&t.ID, &t.Type, &t.Amount.Cents, &categoryID, &walletID, &date, &t.Description, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if walletID.Valid {
		t.WalletID = &walletID.Int64
	}
	t.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	return t, nil
}

type UpdateTransactionParams struct {
	ID          int64
	Type        core.TransactionType
	AmountCents int64
	CategoryID  *int64
	WalletID    *int64
	Date        core.Date
	Description string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, amount_cents = ?, category_id = ?, wallet_id = ?, date = ?, description = ?
		 WHERE id = ?`,
		string(arg.Type), arg.AmountCents, arg.CategoryID, arg.WalletID, arg.Date.String(), arg.Description, arg.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

// TransactionWithRefs joins the referenced category and wallet names for
// listing; the names are empty when the reference is nil.
type TransactionWithRefs struct {
	core.Transaction
	CategoryName string
	CategoryIcon string
	WalletName   string
}

func (q *Queries) ListTransactions(ctx context.Context, limit int64) ([]TransactionWithRefs, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.type, t.amount_cents, t.category_id, t.wallet_id, t.date, t.description, t.created_at,
		       COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(w.name, '')
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN wallets w ON w.id = t.wallet_id
		ORDER BY t.date DESC, t.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var items []TransactionWithRefs
	for rows.Next() {
		var (
			item       TransactionWithRefs
			categoryID sql.NullInt64
			walletID   sql.NullInt64
			date       string
		)
		if err := rows.Scan(&item.ID, &item.Type, &item.Amount.Cents, &categoryID, &walletID,
			&date, &item.Description, &item.CreatedAt,
			&item.CategoryName, &item.CategoryIcon, &item.WalletName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if categoryID.Valid {
			item.CategoryID = &categoryID.Int64
		}
		if walletID.Valid {
			item.WalletID = &walletID.Int64
		}
		item.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SumCategoryExpensesInMonth is the "spent" side of the budget formula: all
// expense transactions referencing the category and dated in the month,
// walletless budget transfers included.
func (q *Queries) SumCategoryExpensesInMonth(ctx context.Context, categoryID int64, month, year int) (int64, error) {
	from, to := monthRange(month, year)
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE type = 'expense' AND category_id = ? AND date >= ? AND date < ?`,
		categoryID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum category expenses: %w", err)
	}
	return total, nil
}

type MonthTotals struct {
	IncomeCents  int64
	ExpenseCents int64
}

// SumMonthTotals returns the month's income and expense totals. Walletless
// expenses are budget relabeling, not real spending, so they are excluded
// from the expense total.
func (q *Queries) SumMonthTotals(ctx context.Context, month, year int) (MonthTotals, error) {
	from, to := monthRange(month, year)
	var t MonthTotals
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' AND wallet_id IS NOT NULL THEN amount_cents ELSE 0 END), 0)
		FROM transactions WHERE date >= ? AND date < ?`,
		from, to).Scan(&t.IncomeCents, &t.ExpenseCents)
	if err != nil {
		return MonthTotals{}, fmt.Errorf("sum month totals: %w", err)
	}
	return t, nil
}

type DailyTotal struct {
	Date       string
	TotalCents int64
}

func (q *Queries) DailyExpenseTotals(ctx context.Context, month, year int) ([]DailyTotal, error) {
	from, to := monthRange(month, year)
	rows, err := q.db.QueryContext(ctx, `
		SELECT date, SUM(amount_cents) FROM transactions
		WHERE type = 'expense' AND wallet_id IS NOT NULL AND date >= ? AND date < ?
		GROUP BY date ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select daily expense totals: %w", err)
	}
	defer rows.Close()

	var totals []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Date, &d.TotalCents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, d)
	}
	return totals, rows.Err()
}

type MonthlyTotal struct {
	Month        int
	IncomeCents  int64
	ExpenseCents int64
}

func (q *Queries) MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-01-01", year+1)
	rows, err := q.db.QueryContext(ctx, `
		SELECT CAST(substr(date, 6, 2) AS INTEGER) AS month,
		       COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type = 'expense' AND wallet_id IS NOT NULL THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ? AND date < ?
		GROUP BY month ORDER BY month`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select monthly totals: %w", err)
	}
	defer rows.Close()

	var totals []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Month, &m.IncomeCents, &m.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		totals = append(totals, m)
	}
	return totals, rows.Err()
}

type CategorySpent struct {
	CategoryID int64
	SpentCents int64
}

func (q *Queries) SpentByCategoryInMonth(ctx context.Context, month, year int) ([]CategorySpent, error) {
	from, to := monthRange(month, year)
	rows, err := q.db.QueryContext(ctx, `
		SELECT category_id, SUM(amount_cents) FROM transactions
		WHERE type = 'expense' AND category_id IS NOT NULL AND date >= ? AND date < ?
		GROUP BY category_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select spent by category: %w", err)
	}
	defer rows.Close()

	var spent []CategorySpent
	for rows.Next() {
		var s CategorySpent
		if err := rows.Scan(&s.CategoryID, &s.SpentCents); err != nil {
			return nil, fmt.Errorf("scan category spent: %w", err)
		}
		spent = append(spent, s)
	}
	return spent, rows.Err()
}

// --- budget rollovers ---

// GetRolloverAmount returns the carry-forward for (category, month, year),
// zero when none exists.
func (q *Queries) GetRolloverAmount(ctx context.Context, categoryID int64, month, year int) (int64, error) {
	var amount int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM budget_rollovers
		WHERE category_id = ? AND month = ? AND year = ?`,
		categoryID, month, year).Scan(&amount)
	if err != nil {
		return 0, fmt.Errorf("select rollover amount: %w", err)
	}
	return amount, nil
}

func (q *Queries) ListRollovers(ctx context.Context, month, year int) ([]core.BudgetRollover, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, category_id, month, year, amount_cents, created_at
		FROM budget_rollovers WHERE month = ? AND year = ? ORDER BY category_id`,
		month, year)
	if err != nil {
		return nil, fmt.Errorf("select rollovers: %w", err)
	}
	defer rows.Close()

	var rollovers []core.BudgetRollover
	for rows.Next() {
		var r core.BudgetRollover
		if err := rows.Scan(&r.ID, &r.CategoryID, &r.Month, &r.Year, &r.Amount.Cents, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rollover: %w", err)
		}
		rollovers = append(rollovers, r)
	}
	return rollovers, rows.Err()
}

func (q *Queries) DeleteRolloversForMonth(ctx context.Context, month, year int) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM budget_rollovers WHERE month = ? AND year = ?`, month, year); err != nil {
		return fmt.Errorf("delete rollovers: %w", err)
	}
	return nil
}

type CreateRolloverParams struct {
	CategoryID  int64
	Month       int
	Year        int
	AmountCents int64
}

func (q *Queries) CreateRollover(ctx context.Context, arg CreateRolloverParams) error {
	if _, err := q.db.ExecContext(ctx,
		`INSERT INTO budget_rollovers (category_id, month, year, amount_cents) VALUES (?, ?, ?, ?)`,
		arg.CategoryID, arg.Month, arg.Year, arg.AmountCents); err != nil {
		return fmt.Errorf("insert rollover: %w", err)
	}
	return nil
}

// --- fuel logs ---

type CreateFuelLogParams struct {
	VehicleType        string
	FuelType           string
	InitialKM          float64
	FinalKM            float64
	PricePerLiterCents int64
	Liters             float64
}

func (q *Queries) CreateFuelLog(ctx context.Context, arg CreateFuelLogParams) (core.FuelLog, error) {
	f := core.FuelLog{
		VehicleType:   arg.VehicleType,
		FuelType:      arg.FuelType,
		InitialKM:     arg.InitialKM,
		FinalKM:       arg.FinalKM,
		PricePerLiter: core.Money{Cents: arg.PricePerLiterCents},
		Liters:        arg.Liters,
	}
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO fuel_logs (vehicle_type, fuel_type, initial_km, final_km, price_per_liter_cents, liters)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id, created_at`,
		arg.VehicleType, arg.FuelType, arg.InitialKM, arg.FinalKM, arg.PricePerLiterCents, arg.Liters,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return core.FuelLog{}, fmt.Errorf("insert fuel log: %w", err)
	}
	return f, nil
}

func (q *Queries) ListFuelLogs(ctx context.Context) ([]core.FuelLog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, vehicle_type, fuel_type, initial_km, final_km, price_per_liter_cents, liters, created_at
		FROM fuel_logs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select fuel logs: %w", err)
	}
	defer rows.Close()

	var logs []core.FuelLog
	for rows.Next() {
		var f core.FuelLog
		if err := rows.Scan(&f.ID, &f.VehicleType, &f.FuelType, &f.InitialKM, &f.FinalKM,
			&f.PricePerLiter.Cents, &f.Liters, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fuel log: %w", err)
		}
		logs = append(logs, f)
	}
	return logs, rows.Err()
}

func (q *Queries) DeleteFuelLog(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM fuel_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fuel log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- rollover runs (worker bookkeeping) ---

type RolloverRun struct {
	Month int
	Year  int
}

// GetRolloverRun returns the last month the rollover worker processed, or
// ok=false when it has never run.
func (q *Queries) GetRolloverRun(ctx context.Context) (RolloverRun, bool, error) {
	var run RolloverRun
	err := q.db.QueryRowContext(ctx,
		`SELECT month, year FROM rollover_runs WHERE id = 1`).Scan(&run.Month, &run.Year)
	if err == sql.ErrNoRows {
		return RolloverRun{}, false, nil
	}
	if err != nil {
		return RolloverRun{}, false, fmt.Errorf("select rollover run: %w", err)
	}
	return run, true, nil
}

func (q *Queries) UpsertRolloverRun(ctx context.Context, month, year int) error {
	if _, err := q.db.ExecContext(ctx, `
		INSERT INTO rollover_runs (id, month, year) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET month = excluded.month, year = excluded.year, ran_at = CURRENT_TIMESTAMP`,
		month, year); err != nil {
		return fmt.Errorf("upsert rollover run: %w", err)
	}
	return nil
}
