// Package export defines the outbound ports for mirroring ledger data to an
// external spreadsheet.
package export

import "context"

// TransactionRow is one exported ledger line, already formatted for the
// spreadsheet.
type TransactionRow struct {
	Date        string
	Type        string
	Description string
	Category    string
	Wallet      string
	Amount      float64
}

// TransactionAppender appends a ledger row and returns a backend reference
// (e.g. the written cell range).
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, row TransactionRow) (string, error)
}
