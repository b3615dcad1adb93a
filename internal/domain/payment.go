package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of an incoming fund payment.
type PaymentStatus string

const (
	PaymentStatusCreated      PaymentStatus = "CREATED"
	PaymentStatusReceived     PaymentStatus = "RECEIVED"
	PaymentStatusVerified     PaymentStatus = "VERIFIED"
	PaymentStatusFrozen       PaymentStatus = "FROZEN"
	PaymentStatusToBeReturned PaymentStatus = "TO_BE_RETURNED"
	PaymentStatusReserved     PaymentStatus = "RESERVED"
	PaymentStatusIssued       PaymentStatus = "ISSUED"
	PaymentStatusProcessed    PaymentStatus = "PROCESSED"
	PaymentStatusReturned     PaymentStatus = "RETURNED"
)

// paymentTransitions is the total transition table. Any pair not
// listed here is rejected.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated:      {PaymentStatusReceived},
	PaymentStatusReceived:     {PaymentStatusVerified, PaymentStatusFrozen, PaymentStatusToBeReturned},
	PaymentStatusVerified:     {PaymentStatusReserved, PaymentStatusToBeReturned},
	PaymentStatusReserved:     {PaymentStatusIssued},
	PaymentStatusIssued:       {PaymentStatusProcessed},
	PaymentStatusToBeReturned: {PaymentStatusReturned},
	PaymentStatusProcessed:    {},
	PaymentStatusFrozen:       {},
	PaymentStatusReturned:     {},
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transitions leave this status.
func (s PaymentStatus) Terminal() bool {
	return len(paymentTransitions[s]) == 0
}

// PaymentStatuses lists every status of the lifecycle.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusCreated, PaymentStatusReceived, PaymentStatusVerified,
		PaymentStatusFrozen, PaymentStatusToBeReturned, PaymentStatusReserved,
		PaymentStatusIssued, PaymentStatusProcessed, PaymentStatusReturned,
	}
}

// mergeableStatuses are the statuses in which a payment may still be
// matched against a second observation of the same bank transfer.
var mergeableStatuses = []PaymentStatus{PaymentStatusCreated, PaymentStatusReceived}

// MergeableStatuses returns the statuses eligible for deduplication
// matching by (description, amount, remitter IBAN).
func MergeableStatuses() []PaymentStatus {
	return mergeableStatuses
}

// Payment is an incoming bank payment observed from a statement or an
// external payment processor. It is mutated only through the guarded
// status machine and never deleted; cancellation is a flag.
type Payment struct {
	ID              string
	PartyID         *string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	RemitterIBAN    string
	RemitterIDCode  string
	RemitterName    string
	ExternalID      *string
	ReceivedBefore  time.Time
	Status          PaymentStatus
	StatusChangedAt time.Time
	CreatedAt       time.Time
	CancelledAt     *time.Time
	ReturnReason    string
}

// Transition moves the payment to the next status, or fails with
// ErrIllegalStatusTransition leaving the status unchanged.
func (p *Payment) Transition(next PaymentStatus, at time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: payment %s, %s -> %s", ErrIllegalStatusTransition, p.ID, p.Status, next)
	}
	p.Status = next
	p.StatusChangedAt = at
	return nil
}

// Cancelled reports whether the user has requested cancellation.
func (p *Payment) Cancelled() bool {
	return p.CancelledAt != nil
}

// Merge folds a second observation of the same transfer into the
// payment. Every previously known field must either agree with the
// incoming value or the incoming value fills a gap; a non-null versus
// different non-null conflict fails loudly instead of overwriting.
// Name fields are compared fuzzily.
func (p *Payment) Merge(in *Payment) error {
	if err := mergeText(&p.Description, in.Description, "description"); err != nil {
		return err
	}
	if err := mergeText(&p.RemitterIBAN, in.RemitterIBAN, "remitter_iban"); err != nil {
		return err
	}
	if err := mergeText(&p.RemitterIDCode, in.RemitterIDCode, "remitter_id_code"); err != nil {
		return err
	}
	if in.RemitterName != "" {
		if p.RemitterName != "" && !NamesMatch(p.RemitterName, in.RemitterName) {
			return fmt.Errorf("%w: remitter_name %q vs %q", ErrPaymentMergeConflict, p.RemitterName, in.RemitterName)
		}
		if p.RemitterName == "" {
			p.RemitterName = in.RemitterName
		}
	}
	if in.ExternalID != nil {
		if p.ExternalID != nil && *p.ExternalID != *in.ExternalID {
			return fmt.Errorf("%w: external_id %q vs %q", ErrPaymentMergeConflict, *p.ExternalID, *in.ExternalID)
		}
		p.ExternalID = in.ExternalID
	}
	if !in.Amount.IsZero() {
		if !p.Amount.IsZero() && !p.Amount.Equal(in.Amount) {
			return fmt.Errorf("%w: amount %s vs %s", ErrPaymentMergeConflict, p.Amount, in.Amount)
		}
		p.Amount = in.Amount
	}
	if in.ReceivedBefore.After(p.ReceivedBefore) {
		p.ReceivedBefore = in.ReceivedBefore
	}
	return nil
}

func mergeText(current *string, incoming, field string) error {
	if incoming == "" {
		return nil
	}
	if *current != "" && *current != incoming {
		return fmt.Errorf("%w: %s %q vs %q", ErrPaymentMergeConflict, field, *current, incoming)
	}
	*current = incoming
	return nil
}
