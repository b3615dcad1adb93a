package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one signed amount posted to exactly one account within
// exactly one transaction. Entries are append-only: they are never
// updated or deleted, corrections are new reversing transactions.
type Entry struct {
	ID            string
	AccountID     string
	TransactionID string
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
