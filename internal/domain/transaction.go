package domain

import "time"

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// Metadata keys used by the canonical operations layer.
const (
	MetaOperation    = "operation"
	MetaUserID       = "user_id"
	MetaPersonalCode = "personal_code"
	MetaPaymentID    = "payment_id"
	MetaRedemptionID = "redemption_id"
	MetaNavPerUnit   = "nav_per_unit"
	MetaFund         = "fund"
	MetaFeeKind      = "fee_kind"
	MetaStatementRef = "statement_reference"
)

// Transaction is an atomic, balanced group of entries. For every asset
// type present, the entry amounts sum to exactly zero. A transaction is
// immutable once created. ExternalReference, when set, is the
// idempotency key for transactions originating from an outside system.
type Transaction struct {
	ID                string
	Type              TransactionType
	Description       string
	Metadata          map[string]any
	ExternalReference *string
	TransactionDate   time.Time
	CreatedAt         time.Time
}
