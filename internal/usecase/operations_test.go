package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

func TestSavingsFundLedger_PaymentAttribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, "38806148523", "Mari Maasikas")
	amount := mustDecimal(t, "100.00")

	txn, err := f.operations.RecordPaymentReceived(ctx, party, amount, "payment-1:received")
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if txn == nil {
		t.Fatal("expected a transaction")
	}

	if got := f.userBalance(t, party.ID, domain.UserAccountCash); !got.Equal(amount) {
		t.Errorf("cash balance = %s, want %s", got, amount)
	}
	if got := f.systemBalance(t, domain.SystemIncomingPaymentsClearing); !got.Equal(amount.Neg()) {
		t.Errorf("clearing balance = %s, want %s", got, amount.Neg())
	}

	// Re-posting the same reference changes nothing.
	again, err := f.operations.RecordPaymentReceived(ctx, party, amount, "payment-1:received")
	if err != nil {
		t.Fatalf("repost: %v", err)
	}
	if again.ID != txn.ID {
		t.Errorf("repost created transaction %s, want existing %s", again.ID, txn.ID)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountCash); !got.Equal(amount) {
		t.Errorf("cash balance after repost = %s, want %s", got, amount)
	}
}

func TestSavingsFundLedger_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, "38806148523", "Mari Maasikas")

	cases := []struct {
		name string
		call func() error
	}{
		{"receive zero", func() error {
			_, err := f.operations.RecordPaymentReceived(ctx, party, decimal.Zero, "r1")
			return err
		}},
		{"reserve negative", func() error {
			_, err := f.operations.ReservePaymentForSubscription(ctx, party, mustDecimal(t, "-5"), "r2")
			return err
		}},
		{"issue zero units", func() error {
			_, err := f.operations.IssueFundUnitsFromReserved(ctx, party, mustDecimal(t, "10"), decimal.Zero, decimal.New(1, 0), "r3")
			return err
		}},
		{"bank fee zero", func() error {
			_, err := f.operations.RecordBankFee(ctx, decimal.Zero, "r4")
			return err
		}},
		{"adjustment zero", func() error {
			_, err := f.operations.RecordBankAdjustment(ctx, decimal.Zero, "r5")
			return err
		}},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("%s: expected ErrInvalidAmount, got %v", tc.name, err)
		}
	}
}

func TestSavingsFundLedger_IssueFundUnitsFromReserved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, "38806148523", "Mari Maasikas")
	cash := mustDecimal(t, "100.00")

	if _, err := f.operations.RecordPaymentReceived(ctx, party, cash, "p:received"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.ReservePaymentForSubscription(ctx, party, cash, "p:reserved"); err != nil {
		t.Fatal(err)
	}
	units := mustDecimal(t, "10.00000")
	if _, err := f.operations.IssueFundUnitsFromReserved(ctx, party, cash, units, mustDecimal(t, "10.00000"), "p:issued"); err != nil {
		t.Fatal(err)
	}

	if got := f.userBalance(t, party.ID, domain.UserAccountCash); !got.IsZero() {
		t.Errorf("cash = %s, want 0", got)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountCashReserved); !got.IsZero() {
		t.Errorf("reserved cash = %s, want 0", got)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountSubscriptions); !got.Equal(cash) {
		t.Errorf("subscriptions = %s, want %s", got, cash)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnits); !got.Equal(units) {
		t.Errorf("units = %s, want %s", got, units)
	}
	// Units outstanding is carried as a negated liability balance.
	if got := f.systemBalance(t, domain.SystemFundUnitsOutstanding); !got.Equal(units.Neg()) {
		t.Errorf("units outstanding balance = %s, want %s", got, units.Neg())
	}
}

func TestSavingsFundLedger_RedemptionLifecyclePostings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, "38806148523", "Mari Maasikas")

	// Seed the member with issued units.
	cash := mustDecimal(t, "100.00")
	units := mustDecimal(t, "10.00000")
	if _, err := f.operations.RecordPaymentReceived(ctx, party, cash, "p:received"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.ReservePaymentForSubscription(ctx, party, cash, "p:reserved"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.IssueFundUnitsFromReserved(ctx, party, cash, units, mustDecimal(t, "10"), "p:issued"); err != nil {
		t.Fatal(err)
	}

	redeemUnits := mustDecimal(t, "4.00000")
	if _, err := f.operations.ReserveFundUnitsForRedemption(ctx, party, redeemUnits, "r:reserved"); err != nil {
		t.Fatal(err)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnits); !got.Equal(mustDecimal(t, "6.00000")) {
		t.Errorf("units after reserve = %s, want 6.00000", got)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.Equal(redeemUnits) {
		t.Errorf("reserved units = %s, want %s", got, redeemUnits)
	}

	payout := mustDecimal(t, "39.60")
	if _, err := f.operations.RedeemFundUnitsFromReserved(ctx, party, redeemUnits, payout, mustDecimal(t, "9.90000"), "r:priced"); err != nil {
		t.Fatal(err)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.IsZero() {
		t.Errorf("reserved units after pricing = %s, want 0", got)
	}
	if got := f.systemBalance(t, domain.SystemFundUnitsOutstanding); !got.Equal(mustDecimal(t, "-6.00000")) {
		t.Errorf("units outstanding = %s, want -6.00000", got)
	}
	if got := f.systemBalance(t, domain.SystemRedemptionPayables); !got.Equal(payout) {
		t.Errorf("redemption payables = %s, want %s", got, payout)
	}

	if _, err := f.operations.RecordRedemptionPayout(ctx, party, payout, "r:payout"); err != nil {
		t.Fatal(err)
	}
	if got := f.systemBalance(t, domain.SystemRedemptionPayables); !got.IsZero() {
		t.Errorf("redemption payables after payout = %s, want 0", got)
	}
	if got := f.systemBalance(t, domain.SystemOutgoingPaymentsClearing); !got.Equal(payout) {
		t.Errorf("outgoing clearing = %s, want %s", got, payout)
	}
}

func TestSavingsFundLedger_ReleaseReservedFundUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, "38806148523", "Mari Maasikas")
	units := mustDecimal(t, "5.00000")

	// Seed reserved units via issue + reserve.
	cash := mustDecimal(t, "50.00")
	if _, err := f.operations.RecordPaymentReceived(ctx, party, cash, "p:received"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.ReservePaymentForSubscription(ctx, party, cash, "p:reserved"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.IssueFundUnitsFromReserved(ctx, party, cash, units, mustDecimal(t, "10"), "p:issued"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.ReserveFundUnitsForRedemption(ctx, party, units, "r:reserved"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.operations.ReleaseReservedFundUnits(ctx, party, units, "r:released"); err != nil {
		t.Fatal(err)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnits); !got.Equal(units) {
		t.Errorf("units after release = %s, want %s", got, units)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.IsZero() {
		t.Errorf("reserved units after release = %s, want 0", got)
	}
}

func TestSavingsFundLedger_RecordPositionSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report := &domain.PositionReport{
		Fund: testFund,
		Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Positions: []domain.Position{
			{ISIN: "IE00B4L5Y983", Name: "iShares Core MSCI World", MarketValue: mustDecimal(t, "700000.00")},
			{ISIN: "IE00BKM4GZ66", Name: "iShares Core MSCI EM IMI", MarketValue: mustDecimal(t, "300000.00")},
		},
	}

	txn, err := f.operations.RecordPositionSnapshot(ctx, report)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if txn == nil {
		t.Fatal("expected a revaluation transaction")
	}
	if got := f.systemBalance(t, domain.SystemSecuritiesValue); !got.Equal(mustDecimal(t, "1000000.00")) {
		t.Errorf("securities value = %s, want 1000000.00", got)
	}

	// Same report again: the ledger already carries the value, zero
	// delta posts nothing.
	txn, err = f.operations.RecordPositionSnapshot(ctx, report)
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if txn != nil {
		t.Errorf("zero delta posted transaction %s", txn.ID)
	}

	// A lower report posts a negative delta.
	report.Date = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	report.Positions[0].MarketValue = mustDecimal(t, "650000.00")
	if _, err := f.operations.RecordPositionSnapshot(ctx, report); err != nil {
		t.Fatalf("third snapshot: %v", err)
	}
	if got := f.systemBalance(t, domain.SystemSecuritiesValue); !got.Equal(mustDecimal(t, "950000.00")) {
		t.Errorf("securities value = %s, want 950000.00", got)
	}
}

func TestSavingsFundLedger_BankOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.operations.RecordBankFee(ctx, mustDecimal(t, "2.50"), "stmt:fee"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.RecordInterestReceived(ctx, mustDecimal(t, "4.00"), "stmt:interest"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.operations.RecordBankAdjustment(ctx, mustDecimal(t, "-1.00"), "stmt:adj"); err != nil {
		t.Fatal(err)
	}

	if got := f.systemBalance(t, domain.SystemCashPosition); !got.Equal(mustDecimal(t, "0.50")) {
		t.Errorf("cash position = %s, want 0.50", got)
	}
	if got := f.systemBalance(t, domain.SystemBankFees); !got.Equal(mustDecimal(t, "2.50")) {
		t.Errorf("bank fees = %s, want 2.50", got)
	}
	if got := f.systemBalance(t, domain.SystemInterestIncome); !got.Equal(mustDecimal(t, "-4.00")) {
		t.Errorf("interest income = %s, want -4.00", got)
	}
	if got := f.systemBalance(t, domain.SystemManualAdjustment); !got.Equal(mustDecimal(t, "1.00")) {
		t.Errorf("manual adjustment = %s, want 1.00", got)
	}
}

func TestSavingsFundLedger_HasLedgerEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, "38806148523", "Mari Maasikas")

	has, err := f.operations.HasLedgerEntry(ctx, "payment-1:received")
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("entry reported before posting")
	}

	if _, err := f.operations.RecordPaymentReceived(ctx, party, mustDecimal(t, "10"), "payment-1:received"); err != nil {
		t.Fatal(err)
	}
	has, err = f.operations.HasLedgerEntry(ctx, "payment-1:received")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("entry not reported after posting")
	}
}
