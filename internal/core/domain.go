package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	WalletCash       WalletKind = "cash"
	WalletBank       WalletKind = "bank"
	WalletEWallet    WalletKind = "ewallet"
	WalletInvestment WalletKind = "investment"

	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"

	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type (
	WalletKind      string
	CategoryType    string
	TransactionType string

	// Date is a calendar day with no time component, always UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Wallet is an account holding money. Its balance changes only through
	// transactions referencing it, or the initial balance set at creation.
	Wallet struct {
		ID        int64
		Name      string
		Kind      WalletKind
		Balance   Money
		CreatedAt time.Time
	}

	// Category is a budget bucket. BudgetLimit is a monthly cap for expense
	// categories; for the seeded savings income category it accumulates
	// income and serves as a funding source.
	Category struct {
		ID          int64
		Name        string
		Icon        string
		Type        CategoryType
		BudgetLimit Money
		IsSavings   bool
		CreatedAt   time.Time
	}

	// Transaction is an atomic money-movement record. Amount is always
	// positive; the sign of its effect derives from Type. A nil WalletID
	// means no wallet balance is touched (pure budget transfers); a nil
	// CategoryID means no category spend is touched.
	Transaction struct {
		ID          int64
		Type        TransactionType
		Amount      Money
		CategoryID  *int64
		WalletID    *int64
		Date        Date
		Description string
		CreatedAt   time.Time
	}

	// BudgetRollover carries a category's unspent budget from the prior
	// month into (Month, Year). At most one row per (category, month, year).
	BudgetRollover struct {
		ID         int64
		CategoryID int64
		Month      int
		Year       int
		Amount     Money
		CreatedAt  time.Time
	}

	// FuelLog records one refuelling of a vehicle.
	FuelLog struct {
		ID            int64
		VehicleType   string
		FuelType      string
		InitialKM     float64
		FinalKM       float64
		PricePerLiter Money
		Liters        float64
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrMissingDate         = errors.New("missing date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrEmptyName           = errors.New("empty name")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidWalletKind   = errors.New("invalid wallet kind")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidTransaction  = errors.New("invalid transaction type")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrFuelLogNotFound     = errors.New("fuel log not found")
	ErrInsufficientBudget  = errors.New("insufficient budget")
	ErrCategoryInUse       = errors.New("category has transactions")
	ErrStaleSnapshot       = errors.New("transaction snapshot is stale")
	ErrInvalidOdometer     = errors.New("final km must exceed initial km")
)

// DeficitError is not a failure: it signals that a proposed expense exceeds
// the category's remaining budget and needs caller confirmation before it
// can be committed.
type DeficitError struct {
	Shortfall Money
}

func (e *DeficitError) Error() string {
	return fmt.Sprintf("budget deficit: short %d cents", e.Shortfall.Cents)
}

func (k WalletKind) Valid() bool {
	switch k {
	case WalletCash, WalletBank, WalletEWallet, WalletInvestment:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the stored representation.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrMissingDate, s)
	}
	return Date{Time: t}, nil
}

// ValidMonth reports whether m is a calendar month in 1..12.
func ValidMonth(m int) bool {
	return m >= 1 && m <= 12
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if !w.Kind.Valid() {
		return ErrInvalidWalletKind
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	if c.BudgetLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTransaction
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (f FuelLog) Validate() error {
	if strings.TrimSpace(f.VehicleType) == "" || strings.TrimSpace(f.FuelType) == "" {
		return ErrEmptyName
	}
	if f.FinalKM <= f.InitialKM {
		return ErrInvalidOdometer
	}
	if f.Liters <= 0 || f.PricePerLiter.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Distance returns the kilometers driven since the previous refuelling.
func (f FuelLog) Distance() float64 {
	return f.FinalKM - f.InitialKM
}

// TotalCost returns liters bought times price per liter.
func (f FuelLog) TotalCost() Money {
	return Money{Cents: int64(float64(f.PricePerLiter.Cents)*f.Liters + 0.5)}
}

// KMPerLiter returns fuel efficiency over the logged distance.
func (f FuelLog) KMPerLiter() float64 {
	if f.Liters <= 0 {
		return 0
	}
	return f.Distance() / f.Liters
}
