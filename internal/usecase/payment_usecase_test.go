package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

func incomingPayment(t *testing.T, externalID string) *domain.Payment {
	t.Helper()
	p := &domain.Payment{
		Amount:       mustDecimal(t, "100.00"),
		Currency:     "EUR",
		Description:  "Kogumisfond 38806148523",
		RemitterIBAN: "EE471000001020145685",
		RemitterName: "Mari Maasikas",
	}
	if externalID != "" {
		p.ExternalID = &externalID
	}
	return p
}

func TestPaymentUseCase_RegisterIncoming(t *testing.T) {
	ctx := context.Background()

	t.Run("new payment lands in RECEIVED", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, "bank-1"))
		if err != nil {
			t.Fatal(err)
		}
		if p.ID == "" {
			t.Error("no id assigned")
		}
		if p.Status != domain.PaymentStatusReceived {
			t.Errorf("status = %s, want %s", p.Status, domain.PaymentStatusReceived)
		}
		if p.ReceivedBefore.IsZero() {
			t.Error("ReceivedBefore not defaulted")
		}
	})

	t.Run("second observation by external id merges", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, "bank-1"))
		if err != nil {
			t.Fatal(err)
		}

		second := incomingPayment(t, "bank-1")
		second.RemitterIDCode = "38806148523"
		merged, err := f.payments.RegisterIncoming(ctx, second)
		if err != nil {
			t.Fatal(err)
		}
		if merged.ID != first.ID {
			t.Fatalf("merge created a new payment %s, want %s", merged.ID, first.ID)
		}
		// The observation filled a gap the first one left open.
		if merged.RemitterIDCode != "38806148523" {
			t.Errorf("remitter id code = %q, want filled in", merged.RemitterIDCode)
		}
	})

	t.Run("statement row merges into announced intent", func(t *testing.T) {
		f := newFixture(t)
		intent := incomingPayment(t, "")
		created, err := f.payments.CreateIntent(ctx, intent)
		if err != nil {
			t.Fatal(err)
		}
		if created.Status != domain.PaymentStatusCreated {
			t.Fatalf("intent status = %s", created.Status)
		}

		// No external id on the intent: matched by description, amount
		// and remitter IBAN.
		merged, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, "bank-7"))
		if err != nil {
			t.Fatal(err)
		}
		if merged.ID != created.ID {
			t.Fatalf("statement row created payment %s, want merge into %s", merged.ID, created.ID)
		}
		// The money is confirmed now.
		if merged.Status != domain.PaymentStatusReceived {
			t.Errorf("status = %s, want %s", merged.Status, domain.PaymentStatusReceived)
		}
	})

	t.Run("conflicting amount refuses to merge", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, "bank-1")); err != nil {
			t.Fatal(err)
		}

		conflicting := incomingPayment(t, "bank-1")
		conflicting.Amount = mustDecimal(t, "999.00")
		_, err := f.payments.RegisterIncoming(ctx, conflicting)
		if !errors.Is(err, domain.ErrPaymentMergeConflict) {
			t.Fatalf("expected ErrPaymentMergeConflict, got %v", err)
		}
	})

	t.Run("settled payment is not merged into", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, ""))
		if err != nil {
			t.Fatal(err)
		}
		// Push the stored payment past the mergeable statuses.
		stored, err := f.paymentRepo.GetByID(ctx, first.ID)
		if err != nil {
			t.Fatal(err)
		}
		stored.Status = domain.PaymentStatusVerified
		if err := f.paymentRepo.UpdateTx(ctx, nil, stored); err != nil {
			t.Fatal(err)
		}

		second, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, ""))
		if err != nil {
			t.Fatal(err)
		}
		if second.ID == first.ID {
			t.Error("merged into a payment already past verification")
		}
	})
}

func TestPaymentUseCase_IngestStatement(t *testing.T) {
	ctx := context.Background()
	booked := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	statement := func() *domain.Statement {
		return &domain.Statement{
			AccountIBAN: reconIBAN,
			Entries: []domain.StatementEntry{
				{
					ExternalID:       "row-1",
					Amount:           mustDecimal(t, "100.00"),
					Currency:         "EUR",
					Direction:        domain.DirectionCredit,
					CounterpartyIBAN: "EE471000001020145685",
					CounterpartyName: "Mari Maasikas",
					Description:      "Kogumisfond 38806148523",
					BookedAt:         booked,
				},
				{
					ExternalID: "row-2",
					Amount:     mustDecimal(t, "9900.00"),
					Currency:   "EUR",
					Direction:  domain.DirectionDebit,
					BookedAt:   booked,
				},
			},
		}
	}

	t.Run("credit lines become payments, debit lines do not", func(t *testing.T) {
		f := newFixture(t)
		registered, err := f.payments.IngestStatement(ctx, statement())
		if err != nil {
			t.Fatal(err)
		}
		if len(registered) != 1 {
			t.Fatalf("registered = %d, want 1", len(registered))
		}
		p := registered[0]
		if p.Status != domain.PaymentStatusReceived {
			t.Errorf("status = %s, want %s", p.Status, domain.PaymentStatusReceived)
		}
		if !p.ReceivedBefore.Equal(booked) {
			t.Errorf("ReceivedBefore = %s, want booking time", p.ReceivedBefore)
		}
		if p.RemitterIBAN != "EE471000001020145685" {
			t.Errorf("remitter IBAN = %q", p.RemitterIBAN)
		}
	})

	t.Run("resubmitted statement merges instead of duplicating", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.payments.IngestStatement(ctx, statement())
		if err != nil {
			t.Fatal(err)
		}
		second, err := f.payments.IngestStatement(ctx, statement())
		if err != nil {
			t.Fatal(err)
		}
		if len(second) != 1 || second[0].ID != first[0].ID {
			t.Fatalf("resubmission created a new payment")
		}
	})
}

func TestPaymentUseCase_Freeze(t *testing.T) {
	ctx := context.Background()

	t.Run("received payment can be frozen", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.payments.RegisterIncoming(ctx, incomingPayment(t, "bank-1"))
		if err != nil {
			t.Fatal(err)
		}

		frozen, err := f.payments.Freeze(ctx, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if frozen.Status != domain.PaymentStatusFrozen {
			t.Fatalf("status = %s, want %s", frozen.Status, domain.PaymentStatusFrozen)
		}

		// The verification job must leave a frozen payment alone.
		if err := f.paymentJobs.RunVerification(ctx); err != nil {
			t.Fatal(err)
		}
		stored, err := f.paymentRepo.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Status != domain.PaymentStatusFrozen {
			t.Errorf("status after verification run = %s, want %s", stored.Status, domain.PaymentStatusFrozen)
		}
	})

	t.Run("announced intent cannot be frozen", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.payments.CreateIntent(ctx, incomingPayment(t, ""))
		if err != nil {
			t.Fatal(err)
		}
		_, err = f.payments.Freeze(ctx, created.ID)
		if !errors.Is(err, domain.ErrIllegalStatusTransition) {
			t.Fatalf("expected ErrIllegalStatusTransition, got %v", err)
		}
	})
}

func TestPaymentUseCase_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.payments.CreateIntent(ctx, incomingPayment(t, ""))
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := f.payments.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("CancelledAt not set")
	}
	// Cancelling flags the payment; the status change belongs to the
	// cancellation job.
	if cancelled.Status != domain.PaymentStatusCreated {
		t.Errorf("status = %s, want %s", cancelled.Status, domain.PaymentStatusCreated)
	}

	// A second cancel keeps the original timestamp.
	firstAt := *cancelled.CancelledAt
	f.clock.Set(f.clock.Now().Add(time.Hour))
	again, err := f.payments.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CancelledAt.Equal(firstAt) {
		t.Errorf("CancelledAt moved from %s to %s", firstAt, again.CancelledAt)
	}
}
