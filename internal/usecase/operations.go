package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// Symbolic operation names, carried in transaction metadata.
const (
	OpPaymentReceived        = "PAYMENT_RECEIVED"
	OpPaymentReserved        = "PAYMENT_RESERVED"
	OpUnitsIssued            = "UNITS_ISSUED"
	OpUnitsReserved          = "UNITS_RESERVED_FOR_REDEMPTION"
	OpUnitsReleased          = "UNITS_RESERVATION_RELEASED"
	OpUnitsRedeemed          = "UNITS_REDEEMED"
	OpRedemptionPayout       = "REDEMPTION_PAYOUT"
	OpPaymentBounced         = "PAYMENT_BOUNCED"
	OpLatePaymentAttributed  = "LATE_PAYMENT_ATTRIBUTED"
	OpPaymentReturnReserved  = "PAYMENT_RETURN_RESERVED"
	OpBankFee                = "BANK_FEE"
	OpInterestReceived       = "INTEREST_RECEIVED"
	OpBankAdjustment         = "BANK_ADJUSTMENT"
	OpFeeAccrual             = "FEE_ACCRUAL"
	OpPositionSnapshot       = "POSITION_SNAPSHOT"
)

// SavingsFundLedger is the canonical operations layer: a fixed
// catalogue of named business operations, each a deterministic recipe
// of account lookups and one CreateTransaction call. This is the only
// place that knows which accounts participate in which business event;
// the transaction service below it knows nothing about business
// semantics.
//
// Sign convention: credits to an account are positive. Money arriving
// at the fund's bank account posts the incoming clearing account
// negative; money leaving posts the outgoing clearing account
// positive.
type SavingsFundLedger struct {
	ledger       *LedgerUseCase
	transactions *TransactionUseCase
}

// NewSavingsFundLedger creates a new SavingsFundLedger.
func NewSavingsFundLedger(ledger *LedgerUseCase, transactions *TransactionUseCase) *SavingsFundLedger {
	return &SavingsFundLedger{ledger: ledger, transactions: transactions}
}

// RecordPaymentReceived credits an attributed incoming payment to the
// member's cash account.
func (l *SavingsFundLedger) RecordPaymentReceived(ctx context.Context, party *domain.Party, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	return l.attributePayment(ctx, party, amount, ref, OpPaymentReceived, "Payment received")
}

// AttributeLatePayment credits a payment that was first left
// unattributed and attributed only after investigation.
func (l *SavingsFundLedger) AttributeLatePayment(ctx context.Context, party *domain.Party, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	return l.attributePayment(ctx, party, amount, ref, OpLatePaymentAttributed, "Late payment attributed")
}

func (l *SavingsFundLedger) attributePayment(ctx context.Context, party *domain.Party, amount decimal.Decimal, ref, op, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	clearing, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemIncomingPaymentsClearing)
	if err != nil {
		return nil, err
	}
	cash, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountCash)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("%s: %s EUR", description, amount),
		ExternalReference: &ref,
		Metadata:          l.userMetadata(op, party),
		Entries: []EntryInput{
			{AccountID: clearing.ID, Amount: amount.Neg()},
			{AccountID: cash.ID, Amount: amount},
		},
	})
}

// ReservePaymentForSubscription moves a member's cash into the
// subscription reserve ahead of the next issuance.
func (l *SavingsFundLedger) ReservePaymentForSubscription(ctx context.Context, party *domain.Party, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	cash, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountCash)
	if err != nil {
		return nil, err
	}
	reserved, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountCashReserved)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Payment reserved for subscription: %s EUR", amount),
		ExternalReference: &ref,
		Metadata:          l.userMetadata(OpPaymentReserved, party),
		Entries: []EntryInput{
			{AccountID: cash.ID, Amount: amount.Neg()},
			{AccountID: reserved.ID, Amount: amount},
		},
	})
}

// IssueFundUnitsFromReserved converts reserved cash into fund units at
// the given per-unit value. Both the cash and the unit leg are part of
// the same transaction and the per-unit value is recorded in metadata.
func (l *SavingsFundLedger) IssueFundUnitsFromReserved(ctx context.Context, party *domain.Party, cashAmount, units, navPerUnit decimal.Decimal, ref string) (*domain.Transaction, error) {
	if cashAmount.LessThanOrEqual(decimal.Zero) || units.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	reserved, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountCashReserved)
	if err != nil {
		return nil, err
	}
	subscriptions, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountSubscriptions)
	if err != nil {
		return nil, err
	}
	outstanding, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemFundUnitsOutstanding)
	if err != nil {
		return nil, err
	}
	unitAccount, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountFundUnits)
	if err != nil {
		return nil, err
	}

	metadata := l.userMetadata(OpUnitsIssued, party)
	metadata[domain.MetaNavPerUnit] = navPerUnit.String()

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Issued %s units at %s EUR/unit", units, navPerUnit),
		ExternalReference: &ref,
		Metadata:          metadata,
		Entries: []EntryInput{
			{AccountID: reserved.ID, Amount: cashAmount.Neg()},
			{AccountID: subscriptions.ID, Amount: cashAmount},
			{AccountID: outstanding.ID, Amount: units.Neg()},
			{AccountID: unitAccount.ID, Amount: units},
		},
	})
}

// ReserveFundUnitsForRedemption moves a member's units into the
// redemption reserve, to be priced at the next NAV.
func (l *SavingsFundLedger) ReserveFundUnitsForRedemption(ctx context.Context, party *domain.Party, units decimal.Decimal, ref string) (*domain.Transaction, error) {
	if units.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	unitAccount, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountFundUnits)
	if err != nil {
		return nil, err
	}
	reserved, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountFundUnitsReserved)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Reserved %s units for redemption", units),
		ExternalReference: &ref,
		Metadata:          l.userMetadata(OpUnitsReserved, party),
		Entries: []EntryInput{
			{AccountID: unitAccount.ID, Amount: units.Neg()},
			{AccountID: reserved.ID, Amount: units},
		},
	})
}

// ReleaseReservedFundUnits moves reserved units back to the member's
// unit account when a redemption is cancelled before pricing.
func (l *SavingsFundLedger) ReleaseReservedFundUnits(ctx context.Context, party *domain.Party, units decimal.Decimal, ref string) (*domain.Transaction, error) {
	if units.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	reserved, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountFundUnitsReserved)
	if err != nil {
		return nil, err
	}
	unitAccount, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountFundUnits)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Released %s reserved units", units),
		ExternalReference: &ref,
		Metadata:          l.userMetadata(OpUnitsReleased, party),
		Entries: []EntryInput{
			{AccountID: reserved.ID, Amount: units.Neg()},
			{AccountID: unitAccount.ID, Amount: units},
		},
	})
}

// RedeemFundUnitsFromReserved retires reserved units at the given
// per-unit value and records the cash owed to the member as a
// redemption payable. This is the pricing entry of a redemption.
func (l *SavingsFundLedger) RedeemFundUnitsFromReserved(ctx context.Context, party *domain.Party, units, cashAmount, navPerUnit decimal.Decimal, ref string) (*domain.Transaction, error) {
	if units.LessThanOrEqual(decimal.Zero) || cashAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	reserved, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountFundUnitsReserved)
	if err != nil {
		return nil, err
	}
	outstanding, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemFundUnitsOutstanding)
	if err != nil {
		return nil, err
	}
	redemptions, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountRedemptions)
	if err != nil {
		return nil, err
	}
	payables, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemRedemptionPayables)
	if err != nil {
		return nil, err
	}

	metadata := l.userMetadata(OpUnitsRedeemed, party)
	metadata[domain.MetaNavPerUnit] = navPerUnit.String()

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Redeemed %s units at %s EUR/unit", units, navPerUnit),
		ExternalReference: &ref,
		Metadata:          metadata,
		Entries: []EntryInput{
			{AccountID: reserved.ID, Amount: units.Neg()},
			{AccountID: outstanding.ID, Amount: units},
			{AccountID: redemptions.ID, Amount: cashAmount.Neg()},
			{AccountID: payables.ID, Amount: cashAmount},
		},
	})
}

// RecordRedemptionPayout clears a redemption payable against the
// outgoing payments clearing account. This is the payout entry of a
// redemption, independent of the pricing entry.
func (l *SavingsFundLedger) RecordRedemptionPayout(ctx context.Context, party *domain.Party, cashAmount decimal.Decimal, ref string) (*domain.Transaction, error) {
	if cashAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	payables, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemRedemptionPayables)
	if err != nil {
		return nil, err
	}
	outgoing, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemOutgoingPaymentsClearing)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Redemption payout: %s EUR", cashAmount),
		ExternalReference: &ref,
		Metadata:          l.userMetadata(OpRedemptionPayout, party),
		Entries: []EntryInput{
			{AccountID: payables.ID, Amount: cashAmount.Neg()},
			{AccountID: outgoing.ID, Amount: cashAmount},
		},
	})
}

// BounceBackUnattributedPayment records money that arrived and was
// sent straight back without ever being attributed to a member.
func (l *SavingsFundLedger) BounceBackUnattributedPayment(ctx context.Context, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	incoming, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemIncomingPaymentsClearing)
	if err != nil {
		return nil, err
	}
	outgoing, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemOutgoingPaymentsClearing)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Unattributed payment bounced back: %s EUR", amount),
		ExternalReference: &ref,
		Metadata:          map[string]any{domain.MetaOperation: OpPaymentBounced},
		Entries: []EntryInput{
			{AccountID: incoming.ID, Amount: amount.Neg()},
			{AccountID: outgoing.ID, Amount: amount},
		},
	})
}

// ReservePaymentForReturn takes a returned payment back out of the
// member's cash account ahead of the outbound bank transfer.
func (l *SavingsFundLedger) ReservePaymentForReturn(ctx context.Context, party *domain.Party, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	cash, err := l.ledger.FindOrCreateUserAccount(ctx, party.ID, domain.UserAccountCash)
	if err != nil {
		return nil, err
	}
	outgoing, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemOutgoingPaymentsClearing)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("Payment reserved for return: %s EUR", amount),
		ExternalReference: &ref,
		Metadata:          l.userMetadata(OpPaymentReturnReserved, party),
		Entries: []EntryInput{
			{AccountID: cash.ID, Amount: amount.Neg()},
			{AccountID: outgoing.ID, Amount: amount},
		},
	})
}

// RecordBankFee books a bank-charged fee against the cash position.
func (l *SavingsFundLedger) RecordBankFee(ctx context.Context, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	return l.cashPositionEntry(ctx, amount.Neg(), domain.SystemBankFees, OpBankFee, "Bank fee", ref)
}

// RecordInterestReceived books credit interest on the cash position.
func (l *SavingsFundLedger) RecordInterestReceived(ctx context.Context, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	return l.cashPositionEntry(ctx, amount, domain.SystemInterestIncome, OpInterestReceived, "Interest received", ref)
}

// RecordBankAdjustment books a signed correction between the cash
// position and the manual adjustment suspense account.
func (l *SavingsFundLedger) RecordBankAdjustment(ctx context.Context, amount decimal.Decimal, ref string) (*domain.Transaction, error) {
	if amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	cash, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
	if err != nil {
		return nil, err
	}
	adjustment, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemManualAdjustment)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeAdjustment,
		Description:       fmt.Sprintf("Bank adjustment: %s EUR", amount),
		ExternalReference: &ref,
		Metadata:          map[string]any{domain.MetaOperation: OpBankAdjustment},
		Entries: []EntryInput{
			{AccountID: cash.ID, Amount: amount},
			{AccountID: adjustment.ID, Amount: amount.Neg()},
		},
	})
}

func (l *SavingsFundLedger) cashPositionEntry(ctx context.Context, cashDelta decimal.Decimal, counter domain.SystemAccountName, op, description, ref string) (*domain.Transaction, error) {
	if cashDelta.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	cash, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
	if err != nil {
		return nil, err
	}
	counterAccount, err := l.ledger.FindOrCreateSystemAccount(ctx, counter)
	if err != nil {
		return nil, err
	}

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("%s: %s EUR", description, cashDelta.Abs()),
		ExternalReference: &ref,
		Metadata:          map[string]any{domain.MetaOperation: op},
		Entries: []EntryInput{
			{AccountID: cash.ID, Amount: cashDelta},
			{AccountID: counterAccount.ID, Amount: cashDelta.Neg()},
		},
	})
}

// RecordFeeAccrual books one day's fee accrual into the named accrual
// account against the fee expense account. The external reference is
// derived from the fee kind and date, so re-running the accrual job is
// a no-op.
func (l *SavingsFundLedger) RecordFeeAccrual(ctx context.Context, accrualAccount domain.SystemAccountName, feeKind string, date time.Time, amount decimal.Decimal) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	accrual, err := l.ledger.FindOrCreateSystemAccount(ctx, accrualAccount)
	if err != nil {
		return nil, err
	}
	expense, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemFeeExpense)
	if err != nil {
		return nil, err
	}

	ref := DeriveReference(feeKind+":"+date.Format("2006-01-02"), "fee-accrual")

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeTransfer,
		Description:       fmt.Sprintf("%s fee accrual for %s: %s EUR", feeKind, date.Format("2006-01-02"), amount),
		TransactionDate:   date,
		ExternalReference: &ref,
		Metadata: map[string]any{
			domain.MetaOperation: OpFeeAccrual,
			domain.MetaFeeKind:   feeKind,
		},
		Entries: []EntryInput{
			{AccountID: accrual.ID, Amount: amount},
			{AccountID: expense.ID, Amount: amount.Neg()},
		},
	})
}

// RecordPositionSnapshot revalues the securities account to the
// custodian-reported market value. The posted amount is the delta
// between the report and the current ledger balance; a zero delta
// posts nothing. Idempotent per (fund, report date).
func (l *SavingsFundLedger) RecordPositionSnapshot(ctx context.Context, report *domain.PositionReport) (*domain.Transaction, error) {
	securities, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemSecuritiesValue)
	if err != nil {
		return nil, err
	}
	revaluation, err := l.ledger.FindOrCreateSystemAccount(ctx, domain.SystemPositionRevaluation)
	if err != nil {
		return nil, err
	}

	current, err := l.ledger.Balance(ctx, securities.ID)
	if err != nil {
		return nil, err
	}
	delta := report.TotalMarketValue().Sub(current)
	if delta.IsZero() {
		return nil, nil
	}

	ref := DeriveReference(report.Fund+":"+report.Date.Format("2006-01-02"), "position")

	return l.transactions.CreateTransaction(ctx, CreateTransactionInput{
		Type:              domain.TransactionTypeAdjustment,
		Description:       fmt.Sprintf("Position snapshot %s %s", report.Fund, report.Date.Format("2006-01-02")),
		TransactionDate:   report.Date,
		ExternalReference: &ref,
		Metadata: map[string]any{
			domain.MetaOperation: OpPositionSnapshot,
			domain.MetaFund:      report.Fund,
		},
		Entries: []EntryInput{
			{AccountID: securities.ID, Amount: delta},
			{AccountID: revaluation.ID, Amount: delta.Neg()},
		},
	})
}

// HasLedgerEntry reports whether a transaction with the external
// reference has been posted.
func (l *SavingsFundLedger) HasLedgerEntry(ctx context.Context, externalReference string) (bool, error) {
	return l.transactions.HasTransaction(ctx, externalReference)
}

// HasPricingEntry reports whether the redemption request has been
// priced.
func (l *SavingsFundLedger) HasPricingEntry(ctx context.Context, redemptionRequestID string) (bool, error) {
	return l.transactions.HasTransaction(ctx, DeriveReference(redemptionRequestID, RefTagPricing))
}

// HasPayoutEntry reports whether the redemption request has been paid
// out.
func (l *SavingsFundLedger) HasPayoutEntry(ctx context.Context, redemptionRequestID string) (bool, error) {
	return l.transactions.HasTransaction(ctx, DeriveReference(redemptionRequestID, RefTagPayout))
}

func (l *SavingsFundLedger) userMetadata(op string, party *domain.Party) map[string]any {
	return map[string]any{
		domain.MetaOperation:    op,
		domain.MetaUserID:       party.ID,
		domain.MetaPersonalCode: party.OwnerID,
	}
}
