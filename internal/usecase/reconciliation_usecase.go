package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// BankMirror lists the ledger accounts whose combined balance tracks
// one bank account. Accounts under Negated move opposite to the bank:
// the clearing accounts post arrivals negative and departures
// positive.
type BankMirror struct {
	Direct  []domain.SystemAccountName
	Negated []domain.SystemAccountName
}

// OperationalBankMirror mirrors the fund's operational bank account.
// Fees, interest and manual adjustments post to the cash position
// directly; all payment and redemption traffic flows through the two
// clearing accounts.
func OperationalBankMirror() BankMirror {
	return BankMirror{
		Direct: []domain.SystemAccountName{domain.SystemCashPosition},
		Negated: []domain.SystemAccountName{
			domain.SystemIncomingPaymentsClearing,
			domain.SystemOutgoingPaymentsClearing,
		},
	}
}

func (m BankMirror) String() string {
	parts := make([]string, 0, len(m.Direct)+len(m.Negated))
	for _, name := range m.Direct {
		parts = append(parts, string(name))
	}
	for _, name := range m.Negated {
		parts = append(parts, "-"+string(name))
	}
	return strings.Join(parts, " ")
}

// Discrepancy is one reconciliation mismatch between a bank-reported
// closing balance and the ledger.
type Discrepancy struct {
	AccountIBAN   string
	LedgerAccount string
	At            string
	BankBalance   decimal.Decimal
	LedgerBalance decimal.Decimal
	Difference    decimal.Decimal
}

// ReconciliationUseCase compares bank-reported closing balances
// against ledger system account balances. It never adjusts the
// ledger; every mismatch is surfaced as an event and left for a
// human.
type ReconciliationUseCase struct {
	ledger     *LedgerUseCase
	txManager  TransactionManager
	outboxRepo OutboxRepository
	idGen      IDGenerator
	clock      Clock
	logger     zerolog.Logger
	// accounts maps a bank account IBAN to the ledger accounts
	// mirroring it.
	accounts map[string]BankMirror
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	ledger *LedgerUseCase,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
	accounts map[string]BankMirror,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		ledger:     ledger,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		clock:      clock,
		logger:     logger,
		accounts:   accounts,
	}
}

// Reconcile checks every closing balance of the statement against
// balanceAsOf the mapped ledger account at the same instant. Equality
// is exact decimal comparison. Returns the discrepancies found; an
// empty slice means the statement reconciles.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, statement *domain.Statement) ([]Discrepancy, error) {
	mirror, ok := uc.accounts[statement.AccountIBAN]
	if !ok {
		return nil, fmt.Errorf("no ledger mirror mapped for bank account %s: %w", statement.AccountIBAN, domain.ErrAccountNotFound)
	}

	var discrepancies []Discrepancy
	for _, closing := range statement.ClosingBalances() {
		ledgerBalance, err := uc.mirrorBalanceAsOf(ctx, mirror, closing.At)
		if err != nil {
			return nil, err
		}
		if closing.Amount.Equal(ledgerBalance) {
			continue
		}

		d := Discrepancy{
			AccountIBAN:   statement.AccountIBAN,
			LedgerAccount: mirror.String(),
			At:            closing.At.Format("2006-01-02T15:04:05Z07:00"),
			BankBalance:   closing.Amount,
			LedgerBalance: ledgerBalance,
			Difference:    closing.Amount.Sub(ledgerBalance),
		}
		discrepancies = append(discrepancies, d)

		uc.logger.Error().
			Str("account_iban", d.AccountIBAN).
			Str("ledger_account", d.LedgerAccount).
			Str("at", d.At).
			Str("bank_balance", d.BankBalance.String()).
			Str("ledger_balance", d.LedgerBalance.String()).
			Str("difference", d.Difference.String()).
			Msg("reconciliation mismatch")

		if err := uc.emitMismatch(ctx, d); err != nil {
			return nil, err
		}
	}

	if len(discrepancies) > 0 {
		return discrepancies, fmt.Errorf("statement for %s: %w", statement.AccountIBAN, domain.ErrReconciliationMismatch)
	}
	return nil, nil
}

func (uc *ReconciliationUseCase) mirrorBalanceAsOf(ctx context.Context, mirror BankMirror, at time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, name := range mirror.Direct {
		balance, err := uc.ledger.SystemBalanceAsOf(ctx, name, at)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(balance)
	}
	for _, name := range mirror.Negated {
		balance, err := uc.ledger.SystemBalanceAsOf(ctx, name, at)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Sub(balance)
	}
	return total, nil
}

func (uc *ReconciliationUseCase) emitMismatch(ctx context.Context, d Discrepancy) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   d.AccountIBAN,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeReconciliationMismatch,
		Payload: domain.ReconciliationMismatchEvent{
			AccountIBAN:   d.AccountIBAN,
			LedgerAccount: d.LedgerAccount,
			At:            d.At,
			BankBalance:   d.BankBalance.String(),
			LedgerBalance: d.LedgerBalance.String(),
			Difference:    d.Difference.String(),
		},
		CreatedAt: uc.clock.Now(),
	}
	if err := uc.outboxRepo.CreateTx(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
