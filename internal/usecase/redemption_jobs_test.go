package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

const beneficiaryIBAN = "EE471000001020145685"

func redemptionStatus(t *testing.T, f *fixture, id string) domain.RedemptionStatus {
	t.Helper()
	r, err := f.redemptionRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return r.Status
}

func TestRedemptionUseCase_CreateRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := f.party(t, memberCode, memberName)

	r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "10"), beneficiaryIBAN)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != domain.RedemptionStatusCreated {
		t.Errorf("status = %s, want %s", r.Status, domain.RedemptionStatusCreated)
	}

	if _, err := f.redemptions.CreateRequest(ctx, party.ID, decimal.Zero, beneficiaryIBAN); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero units: expected ErrInvalidAmount, got %v", err)
	}
}

func TestRedemptionJobs_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := seedFund(t, f, "1000000.00", "100000")

	r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "1000"), beneficiaryIBAN)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.redeemJobs.RunReservation(ctx); err != nil {
		t.Fatal(err)
	}
	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusReserved {
		t.Fatalf("status = %s, want %s", got, domain.RedemptionStatusReserved)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnits); !got.Equal(mustDecimal(t, "99000")) {
		t.Errorf("units = %s, want 99000", got)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.Equal(mustDecimal(t, "1000")) {
		t.Errorf("reserved units = %s, want 1000", got)
	}

	// Pricing at the calculated NAV: preliminary 1000000 over 100000
	// units, minus the 10000.00 the reserved units are worth, gives
	// 9.90000 per unit.
	if err := f.redeemJobs.RunPricing(ctx); err != nil {
		t.Fatal(err)
	}
	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusPriced {
		t.Fatalf("status = %s, want %s", got, domain.RedemptionStatusPriced)
	}
	if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.IsZero() {
		t.Errorf("reserved units after pricing = %s, want 0", got)
	}
	if got := f.systemBalance(t, domain.SystemFundUnitsOutstanding); !got.Equal(mustDecimal(t, "-99000")) {
		t.Errorf("units outstanding = %s, want -99000", got)
	}
	owed := mustDecimal(t, "9900.00")
	if got := f.systemBalance(t, domain.SystemRedemptionPayables); !got.Equal(owed) {
		t.Errorf("redemption payables = %s, want %s", got, owed)
	}

	if err := f.redeemJobs.RunPayout(ctx); err != nil {
		t.Fatal(err)
	}
	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusPaidOut {
		t.Fatalf("status = %s, want %s", got, domain.RedemptionStatusPaidOut)
	}
	transfers := f.bank.Transfers()
	if len(transfers) != 1 {
		t.Fatalf("bank transfers = %d, want 1", len(transfers))
	}
	if !transfers[0].Amount.Equal(owed) {
		t.Errorf("transfer amount = %s, want %s", transfers[0].Amount, owed)
	}
	if transfers[0].BeneficiaryIBAN != beneficiaryIBAN {
		t.Errorf("beneficiary = %s", transfers[0].BeneficiaryIBAN)
	}
	if got := f.systemBalance(t, domain.SystemRedemptionPayables); !got.IsZero() {
		t.Errorf("redemption payables after payout = %s, want 0", got)
	}

	if err := f.redeemJobs.RunProcessing(ctx); err != nil {
		t.Fatal(err)
	}
	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusProcessed {
		t.Fatalf("status = %s, want %s", got, domain.RedemptionStatusProcessed)
	}

	var sawPaidOut bool
	for _, e := range f.outboxRepo.Events() {
		if e.EventType == domain.EventTypeRedemptionPaidOut && e.AggregateID == r.ID {
			sawPaidOut = true
		}
	}
	if !sawPaidOut {
		t.Error("no paid out event recorded")
	}
}

func TestRedemptionJobs_PayoutUsesPricedValue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := seedFund(t, f, "1000000.00", "100000")

	r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "1000"), beneficiaryIBAN)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.redeemJobs.RunReservation(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.redeemJobs.RunPricing(ctx); err != nil {
		t.Fatal(err)
	}

	// The market moves between pricing and payout. The member gets the
	// priced amount, not a re-derived one.
	f.seedSystemBalance(t, domain.SystemSecuritiesValue, mustDecimal(t, "500000.00"))
	if err := f.redeemJobs.RunPayout(ctx); err != nil {
		t.Fatal(err)
	}

	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusPaidOut {
		t.Fatalf("status = %s, want %s", got, domain.RedemptionStatusPaidOut)
	}
	transfers := f.bank.Transfers()
	if len(transfers) != 1 {
		t.Fatalf("bank transfers = %d, want 1", len(transfers))
	}
	if !transfers[0].Amount.Equal(mustDecimal(t, "9900.00")) {
		t.Errorf("transfer amount = %s, want 9900.00", transfers[0].Amount)
	}
}

func TestRedemptionJobs_Cancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("created request cancels immediately", func(t *testing.T) {
		f := newFixture(t)
		party := seedFund(t, f, "1000000.00", "100000")
		r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "10"), beneficiaryIBAN)
		if err != nil {
			t.Fatal(err)
		}

		cancelled, err := f.redemptions.Cancel(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if cancelled.Status != domain.RedemptionStatusCancelled {
			t.Fatalf("status = %s, want %s", cancelled.Status, domain.RedemptionStatusCancelled)
		}

		// The reservation job must not pick it up.
		if err := f.redeemJobs.RunReservation(ctx); err != nil {
			t.Fatal(err)
		}
		if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.IsZero() {
			t.Errorf("reserved units = %s, want 0", got)
		}
	})

	t.Run("reserved request releases its units", func(t *testing.T) {
		f := newFixture(t)
		party := seedFund(t, f, "1000000.00", "100000")
		r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "1000"), beneficiaryIBAN)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.redeemJobs.RunReservation(ctx); err != nil {
			t.Fatal(err)
		}

		flagged, err := f.redemptions.Cancel(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		// Flagged, not yet closed: the job releases the units first.
		if flagged.Status != domain.RedemptionStatusReserved {
			t.Fatalf("status = %s, want %s", flagged.Status, domain.RedemptionStatusReserved)
		}

		// A flagged request must not be priced.
		if err := f.redeemJobs.RunPricing(ctx); err != nil {
			t.Fatal(err)
		}
		if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusReserved {
			t.Fatalf("status after pricing run = %s, want %s", got, domain.RedemptionStatusReserved)
		}

		if err := f.redeemJobs.RunCancellation(ctx); err != nil {
			t.Fatal(err)
		}
		if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusCancelled {
			t.Fatalf("status = %s, want %s", got, domain.RedemptionStatusCancelled)
		}
		if got := f.userBalance(t, party.ID, domain.UserAccountFundUnits); !got.Equal(mustDecimal(t, "100000")) {
			t.Errorf("units after release = %s, want 100000", got)
		}
		if got := f.userBalance(t, party.ID, domain.UserAccountFundUnitsReserved); !got.IsZero() {
			t.Errorf("reserved units = %s, want 0", got)
		}
	})

	t.Run("priced request refuses to cancel", func(t *testing.T) {
		f := newFixture(t)
		party := seedFund(t, f, "1000000.00", "100000")
		r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "1000"), beneficiaryIBAN)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.redeemJobs.RunReservation(ctx); err != nil {
			t.Fatal(err)
		}
		if err := f.redeemJobs.RunPricing(ctx); err != nil {
			t.Fatal(err)
		}

		if _, err := f.redemptions.Cancel(ctx, r.ID); !errors.Is(err, domain.ErrIllegalStatusTransition) {
			t.Fatalf("expected ErrIllegalStatusTransition, got %v", err)
		}
	})
}

func TestRedemptionJobs_PayoutKeepsRequestWhenBankFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	party := seedFund(t, f, "1000000.00", "100000")
	r, err := f.redemptions.CreateRequest(ctx, party.ID, mustDecimal(t, "1000"), beneficiaryIBAN)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.redeemJobs.RunReservation(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.redeemJobs.RunPricing(ctx); err != nil {
		t.Fatal(err)
	}

	f.bank.SendTransferFunc = func(ctx context.Context, transfer domain.OutboundTransfer) error {
		return errors.New("gateway timeout")
	}
	if err := f.redeemJobs.RunPayout(ctx); err != nil {
		t.Fatal(err)
	}

	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusPriced {
		t.Errorf("status = %s, want %s", got, domain.RedemptionStatusPriced)
	}
	if got := f.systemBalance(t, domain.SystemRedemptionPayables); !got.Equal(mustDecimal(t, "9900.00")) {
		t.Errorf("redemption payables = %s, want 9900.00", got)
	}

	// Next run with the gateway back retries the same transfer.
	f.bank.SendTransferFunc = nil
	if err := f.redeemJobs.RunPayout(ctx); err != nil {
		t.Fatal(err)
	}
	if got := redemptionStatus(t, f, r.ID); got != domain.RedemptionStatusPaidOut {
		t.Errorf("status after retry = %s, want %s", got, domain.RedemptionStatusPaidOut)
	}
}
