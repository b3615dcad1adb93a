package domain

import "errors"

var (
	// Validation errors, always rejected before any write.
	ErrEmptyTransaction      = errors.New("transaction must have at least two entries")
	ErrUnbalancedTransaction = errors.New("transaction entries do not sum to zero per asset type")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrUnknownAccountKind    = errors.New("unknown account kind")

	// Conflict errors.
	ErrDuplicateExternalReference = errors.New("transaction with external reference already exists")
	ErrAlreadyExists              = errors.New("row already exists")
	ErrIllegalStatusTransition    = errors.New("illegal status transition")
	ErrPaymentMergeConflict       = errors.New("conflicting payment fields, refusing to merge")

	// Not-found errors.
	ErrPartyNotFound       = errors.New("party not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrRedemptionNotFound  = errors.New("redemption request not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrNoPositionReport    = errors.New("no position report available")

	// ErrReconciliationMismatch is surfaced as an alert, never auto-resolved.
	ErrReconciliationMismatch = errors.New("ledger balance differs from bank-reported balance")
)
