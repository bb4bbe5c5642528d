package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/services"
	"dompet/internal/storage"
)

// RolloverWorker watches for month boundaries and carries unspent budget
// forward. The last processed month is persisted, so a worker that was down
// across one or more boundaries catches up by rolling through each skipped
// month in order.
type RolloverWorker struct {
	repo   *storage.SQLiteRepository
	ledger *services.LedgerService
	// now is swappable for tests.
	now func() time.Time
}

func NewRolloverWorker(repo *storage.SQLiteRepository, ledger *services.LedgerService) *RolloverWorker {
	return &RolloverWorker{
		repo:   repo,
		ledger: ledger,
		now:    time.Now,
	}
}

// Run checks once at startup and then on every tick until ctx is cancelled.
func (w *RolloverWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.CheckAndRun(ctx); err != nil {
		slog.ErrorContext(ctx, "Rollover check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.CheckAndRun(ctx); err != nil {
				slog.ErrorContext(ctx, "Rollover check failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// CheckAndRun performs the rollovers owed since the last recorded run. On
// the very first run it records the current month as a baseline without
// rolling anything: there is no known prior month to carry from.
func (w *RolloverWorker) CheckAndRun(ctx context.Context) error {
	now := w.now().UTC()
	currentMonth, currentYear := int(now.Month()), now.Year()

	q := w.repo.Queries()
	last, ok, err := q.GetRolloverRun(ctx)
	if err != nil {
		return fmt.Errorf("load rollover run: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "Recording rollover baseline",
			"month", currentMonth, "year", currentYear)
		return q.UpsertRolloverRun(ctx, currentMonth, currentYear)
	}
	if last.Month == currentMonth && last.Year == currentYear {
		return nil
	}

	// Roll month by month so a multi-month gap compounds correctly.
	fromMonth, fromYear := last.Month, last.Year
	for fromYear < currentYear || (fromYear == currentYear && fromMonth < currentMonth) {
		toMonth, toYear := nextMonth(fromMonth, fromYear)
		if err := w.ledger.Rollover(ctx, fromMonth, fromYear, toMonth, toYear); err != nil {
			return fmt.Errorf("rollover %d/%d -> %d/%d: %w", fromMonth, fromYear, toMonth, toYear, err)
		}
		if err := q.UpsertRolloverRun(ctx, toMonth, toYear); err != nil {
			return fmt.Errorf("record rollover run: %w", err)
		}
		fromMonth, fromYear = toMonth, toYear
	}
	return nil
}

func nextMonth(month, year int) (int, int) {
	if month == 12 {
		return 1, year + 1
	}
	return month + 1, year
}
