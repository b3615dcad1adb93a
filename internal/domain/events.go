package domain

import "time"

// Event types
const (
	EventTypeNavCalculated          = "nav.calculated"
	EventTypeReconciliationMismatch = "reconciliation.mismatch"
	EventTypePaymentReturned        = "payment.returned"
	EventTypeUnitsIssued            = "payment.units_issued"
	EventTypeRedemptionPaidOut      = "redemption.paid_out"
)

// Aggregate types
const (
	AggregateTypeFund       = "fund"
	AggregateTypePayment    = "payment"
	AggregateTypeRedemption = "redemption"
	AggregateTypeAccount    = "account"
)

// OutboxEvent is an event recorded in the same database transaction as
// the state change it describes, published asynchronously.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NavCalculatedEvent payload
type NavCalculatedEvent struct {
	Fund             string `json:"fund"`
	Date             string `json:"date"`
	NavPerUnit       string `json:"nav_per_unit"`
	FinalNav         string `json:"final_nav"`
	UnitsOutstanding string `json:"units_outstanding"`
}

// ReconciliationMismatchEvent payload
type ReconciliationMismatchEvent struct {
	AccountIBAN   string `json:"account_iban"`
	LedgerAccount string `json:"ledger_account"`
	At            string `json:"at"`
	BankBalance   string `json:"bank_balance"`
	LedgerBalance string `json:"ledger_balance"`
	Difference    string `json:"difference"`
}

// PaymentReturnedEvent payload
type PaymentReturnedEvent struct {
	PaymentID    string `json:"payment_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	RemitterIBAN string `json:"remitter_iban"`
	Reason       string `json:"reason"`
}
