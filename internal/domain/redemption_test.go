package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

func TestRedemptionStatus_Transitions(t *testing.T) {
	all := []domain.RedemptionStatus{
		domain.RedemptionStatusCreated, domain.RedemptionStatusReserved,
		domain.RedemptionStatusPriced, domain.RedemptionStatusPaidOut,
		domain.RedemptionStatusProcessed, domain.RedemptionStatusCancelled,
	}
	allowed := map[domain.RedemptionStatus][]domain.RedemptionStatus{
		domain.RedemptionStatusCreated:  {domain.RedemptionStatusReserved, domain.RedemptionStatusCancelled},
		domain.RedemptionStatusReserved: {domain.RedemptionStatusPriced, domain.RedemptionStatusCancelled},
		domain.RedemptionStatusPriced:   {domain.RedemptionStatusPaidOut},
		domain.RedemptionStatusPaidOut:  {domain.RedemptionStatusProcessed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRedemptionRequest_Transition(t *testing.T) {
	r := &domain.RedemptionRequest{ID: "red-1", Status: domain.RedemptionStatusPriced}
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	err := r.Transition(domain.RedemptionStatusCancelled, at)
	if !errors.Is(err, domain.ErrIllegalStatusTransition) {
		t.Fatalf("expected ErrIllegalStatusTransition, got %v", err)
	}
	if r.Status != domain.RedemptionStatusPriced {
		t.Errorf("status changed to %s after rejected transition", r.Status)
	}

	if err := r.Transition(domain.RedemptionStatusPaidOut, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != domain.RedemptionStatusPaidOut {
		t.Errorf("status = %s, want PAID_OUT", r.Status)
	}
}
