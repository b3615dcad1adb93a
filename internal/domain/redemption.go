package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RedemptionStatus is the lifecycle state of a redemption request.
type RedemptionStatus string

const (
	RedemptionStatusCreated   RedemptionStatus = "CREATED"
	RedemptionStatusReserved  RedemptionStatus = "RESERVED"
	RedemptionStatusPriced    RedemptionStatus = "PRICED"
	RedemptionStatusPaidOut   RedemptionStatus = "PAID_OUT"
	RedemptionStatusProcessed RedemptionStatus = "PROCESSED"
	RedemptionStatusCancelled RedemptionStatus = "CANCELLED"
)

var redemptionTransitions = map[RedemptionStatus][]RedemptionStatus{
	RedemptionStatusCreated:   {RedemptionStatusReserved, RedemptionStatusCancelled},
	RedemptionStatusReserved:  {RedemptionStatusPriced, RedemptionStatusCancelled},
	RedemptionStatusPriced:    {RedemptionStatusPaidOut},
	RedemptionStatusPaidOut:   {RedemptionStatusProcessed},
	RedemptionStatusProcessed: {},
	RedemptionStatusCancelled: {},
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s RedemptionStatus) CanTransitionTo(next RedemptionStatus) bool {
	for _, allowed := range redemptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transitions leave this status.
func (s RedemptionStatus) Terminal() bool {
	return len(redemptionTransitions[s]) == 0
}

// RedemptionRequest is a member's request to redeem fund units, the
// outgoing peer of Payment. Units are reserved first, priced at the
// NAV being calculated, then paid out.
type RedemptionRequest struct {
	ID              string
	PartyID         string
	Units           decimal.Decimal
	BeneficiaryIBAN string
	Status          RedemptionStatus
	StatusChangedAt time.Time
	CreatedAt       time.Time
	CancelledAt     *time.Time
}

// Transition moves the request to the next status, or fails with
// ErrIllegalStatusTransition leaving the status unchanged.
func (r *RedemptionRequest) Transition(next RedemptionStatus, at time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: redemption %s, %s -> %s", ErrIllegalStatusTransition, r.ID, r.Status, next)
	}
	r.Status = next
	r.StatusChangedAt = at
	return nil
}
