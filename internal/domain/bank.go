package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementDirection is the side of a bank statement entry.
type StatementDirection string

const (
	DirectionCredit StatementDirection = "CREDIT"
	DirectionDebit  StatementDirection = "DEBIT"
)

// StatementBalanceType distinguishes the statement's balance rows.
type StatementBalanceType string

const (
	BalanceTypeOpening StatementBalanceType = "OPENING"
	BalanceTypeClosing StatementBalanceType = "CLOSING"
)

// StatementBalance is a bank-reported balance at an instant.
type StatementBalance struct {
	Type   StatementBalanceType
	Amount decimal.Decimal
	At     time.Time
}

// StatementEntry is one normalized statement line. ISO 20022 parsing
// happens upstream; the core consumes only this shape.
type StatementEntry struct {
	ExternalID         string
	Amount             decimal.Decimal
	Currency           string
	Direction          StatementDirection
	CounterpartyIBAN   string
	CounterpartyIDCode string
	CounterpartyName   string
	Description        string
	BookedAt           time.Time
}

// Statement is the neutral bank statement shape supplied by the bank
// collaborator.
type Statement struct {
	AccountIBAN string
	Balances    []StatementBalance
	Entries     []StatementEntry
}

// ClosingBalances returns the statement's closing balance rows.
func (s *Statement) ClosingBalances() []StatementBalance {
	var out []StatementBalance
	for _, b := range s.Balances {
		if b.Type == BalanceTypeClosing {
			out = append(out, b)
		}
	}
	return out
}

// OutboundTransfer is an instruction to the bank gateway to pay money
// out, used by the returning and redemption payout jobs.
type OutboundTransfer struct {
	Reference       string
	BeneficiaryIBAN string
	BeneficiaryName string
	Amount          decimal.Decimal
	Currency        string
	Description     string
}

// UserDetails is the fund-onboarding view of a member, supplied by the
// user registry collaborator.
type UserDetails struct {
	PersonalCode string
	FirstName    string
	LastName     string
	Onboarded    bool
}

// FullName returns the member's legal name as registered.
func (u UserDetails) FullName() string {
	return u.FirstName + " " + u.LastName
}
