package usecase

import (
	"context"
	"errors"
	"regexp"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// personalCodePattern matches an Estonian personal identification code
// in free text. The first digit encodes century and sex, 1 through 6.
var personalCodePattern = regexp.MustCompile(`\b[1-6]\d{10}\b`)

// Rejection reasons recorded on returned payments, in Estonian as they
// appear on the member's bank statement.
const (
	ReasonCodeNotFound   = "Isikukoodi ei leitud makse selgitusest"
	ReasonCodeMismatch   = "Makse selgituses olev isikukood ei ühti maksja isikukoodiga"
	ReasonUserNotFound   = "Kasutajat ei leitud"
	ReasonNameMismatch   = "Maksja nimi ei ühti kasutaja nimega"
	ReasonNotOnboarded   = "Kasutaja ei ole kogumisfondiga liitunud"
	ReasonUserCancelled  = "kliendi soovil"
)

// PaymentJobs are the scheduled drivers of the payment lifecycle. Each
// run is safe to repeat from scratch: ledger postings carry derived
// external references and status transitions are guarded, so a
// re-application is a no-op. One bad payment never blocks the rest of
// the batch; it is logged and skipped.
type PaymentJobs struct {
	payments    *PaymentUseCase
	paymentRepo PaymentRepository
	ledger      *LedgerUseCase
	operations  *SavingsFundLedger
	nav         *NavUseCase
	users       UserRegistry
	bank        BankGateway
	txManager   TransactionManager
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	clock       Clock
	logger      zerolog.Logger
	fund        string
}

// NewPaymentJobs creates a new PaymentJobs.
func NewPaymentJobs(
	payments *PaymentUseCase,
	paymentRepo PaymentRepository,
	ledger *LedgerUseCase,
	operations *SavingsFundLedger,
	nav *NavUseCase,
	users UserRegistry,
	bank BankGateway,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
	fund string,
) *PaymentJobs {
	return &PaymentJobs{
		payments:    payments,
		paymentRepo: paymentRepo,
		ledger:      ledger,
		operations:  operations,
		nav:         nav,
		users:       users,
		bank:        bank,
		txManager:   txManager,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		clock:       clock,
		logger:      logger,
		fund:        fund,
	}
}

// RunVerification checks every RECEIVED payment: the personal code
// extracted from the remittance text must agree with the declared
// remitter id-code, belong to a known member whose legal name fuzzily
// matches the remitter name, and the member must be onboarded. Any
// failure records an Estonian rejection reason and routes the payment
// to TO_BE_RETURNED; success attributes the money to the member's
// cash account and moves the payment to VERIFIED.
func (j *PaymentJobs) RunVerification(ctx context.Context) error {
	payments, err := j.paymentRepo.ListByStatus(ctx, domain.PaymentStatusReceived)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if err := j.verify(ctx, p); err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("payment verification failed")
		}
	}
	return nil
}

func (j *PaymentJobs) verify(ctx context.Context, p *domain.Payment) error {
	personalCode := personalCodePattern.FindString(p.Description)
	if personalCode == "" {
		return j.reject(ctx, p.ID, ReasonCodeNotFound)
	}
	if p.RemitterIDCode != "" && p.RemitterIDCode != personalCode {
		return j.reject(ctx, p.ID, ReasonCodeMismatch)
	}

	user, err := j.users.GetByPersonalCode(ctx, personalCode)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return j.reject(ctx, p.ID, ReasonUserNotFound)
		}
		// Registry unavailable: leave the payment in RECEIVED for the
		// next run rather than returning member money on an outage.
		return err
	}
	if !domain.NamesMatch(p.RemitterName, user.FullName()) {
		return j.reject(ctx, p.ID, ReasonNameMismatch)
	}
	if !user.Onboarded {
		return j.reject(ctx, p.ID, ReasonNotOnboarded)
	}

	party, err := j.ledger.FindOrCreateParty(ctx, domain.PartyTypeUser, personalCode, map[string]any{
		"name": user.FullName(),
	})
	if err != nil {
		return err
	}

	if _, err := j.operations.RecordPaymentReceived(ctx, party, p.Amount, DeriveReference(p.ID, RefTagReceive)); err != nil {
		return err
	}

	_, err = j.payments.update(ctx, p.ID, func(payment *domain.Payment) error {
		payment.PartyID = &party.ID
		return payment.Transition(domain.PaymentStatusVerified, j.clock.Now())
	})
	return err
}

func (j *PaymentJobs) reject(ctx context.Context, id, reason string) error {
	_, err := j.payments.update(ctx, id, func(p *domain.Payment) error {
		if p.Status != domain.PaymentStatusReceived {
			return nil
		}
		p.ReturnReason = reason
		return p.Transition(domain.PaymentStatusToBeReturned, j.clock.Now())
	})
	return err
}

// RunReservation reserves every VERIFIED payment that arrived by the
// daily cutoff, 16:00 Europe/Tallinn on the latest working day.
func (j *PaymentJobs) RunReservation(ctx context.Context) error {
	payments, err := j.paymentRepo.ListByStatus(ctx, domain.PaymentStatusVerified)
	if err != nil {
		return err
	}
	cutoff := domain.ReservationCutoff(j.clock.Now())
	for _, p := range payments {
		if p.ReceivedBefore.After(cutoff) {
			continue
		}
		if err := j.reserve(ctx, p); err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("payment reservation failed")
		}
	}
	return nil
}

func (j *PaymentJobs) reserve(ctx context.Context, p *domain.Payment) error {
	party, err := j.paymentParty(ctx, p)
	if err != nil {
		return err
	}
	if _, err := j.operations.ReservePaymentForSubscription(ctx, party, p.Amount, DeriveReference(p.ID, RefTagReservation)); err != nil {
		return err
	}
	_, err = j.payments.ChangeStatus(ctx, p.ID, domain.PaymentStatusReserved)
	return err
}

// RunIssuance converts every RESERVED payment into fund units at the
// current NAV. The unit count is the payment amount divided by the
// per-unit value, rounded half up to the unit scale.
func (j *PaymentJobs) RunIssuance(ctx context.Context) error {
	payments, err := j.paymentRepo.ListByStatus(ctx, domain.PaymentStatusReserved)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}

	result, err := j.nav.Calculate(ctx, j.fund, j.clock.Now())
	if err != nil {
		return err
	}
	for _, p := range payments {
		if err := j.issue(ctx, p, result.NavPerUnit); err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("unit issuance failed")
		}
	}
	return nil
}

func (j *PaymentJobs) issue(ctx context.Context, p *domain.Payment, navPerUnit decimal.Decimal) error {
	party, err := j.paymentParty(ctx, p)
	if err != nil {
		return err
	}
	units := p.Amount.DivRound(navPerUnit, domain.NavPerUnitScale)
	if _, err := j.operations.IssueFundUnitsFromReserved(ctx, party, p.Amount, units, navPerUnit, DeriveReference(p.ID, RefTagIssue)); err != nil {
		return err
	}
	if _, err := j.payments.ChangeStatus(ctx, p.ID, domain.PaymentStatusIssued); err != nil {
		return err
	}
	return j.emit(ctx, domain.AggregateTypePayment, p.ID, domain.EventTypeUnitsIssued, map[string]any{
		"payment_id":   p.ID,
		"units":        units.String(),
		"nav_per_unit": navPerUnit.String(),
	})
}

// RunProcessing settles ISSUED payments whose issuance entry is
// confirmed in the ledger.
func (j *PaymentJobs) RunProcessing(ctx context.Context) error {
	payments, err := j.paymentRepo.ListByStatus(ctx, domain.PaymentStatusIssued)
	if err != nil {
		return err
	}
	for _, p := range payments {
		posted, err := j.operations.HasLedgerEntry(ctx, DeriveReference(p.ID, RefTagIssue))
		if err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("issuance entry check failed")
			continue
		}
		if !posted {
			continue
		}
		if _, err := j.payments.ChangeStatus(ctx, p.ID, domain.PaymentStatusProcessed); err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("payment processing failed")
		}
	}
	return nil
}

// RunCancellation routes user-cancelled payments to TO_BE_RETURNED
// once their cancellation deadline, the reservation cutoff after the
// cancellation, has passed. Payments already reserved can no longer be
// cancelled.
func (j *PaymentJobs) RunCancellation(ctx context.Context) error {
	payments, err := j.paymentRepo.ListCancelled(ctx, []domain.PaymentStatus{
		domain.PaymentStatusReceived,
		domain.PaymentStatusVerified,
	})
	if err != nil {
		return err
	}
	cutoff := domain.ReservationCutoff(j.clock.Now())
	for _, p := range payments {
		if p.CancelledAt == nil || !p.CancelledAt.Before(cutoff) {
			continue
		}
		_, err := j.payments.update(ctx, p.ID, func(payment *domain.Payment) error {
			payment.ReturnReason = ReasonUserCancelled
			return payment.Transition(domain.PaymentStatusToBeReturned, j.clock.Now())
		})
		if err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("payment cancellation failed")
		}
	}
	return nil
}

// RunReturning sends every TO_BE_RETURNED payment back to the
// remitter. A payment that was attributed to a member has its cash
// reserved for return; one that never touched a member account is
// bounced straight between the clearing accounts.
func (j *PaymentJobs) RunReturning(ctx context.Context) error {
	payments, err := j.paymentRepo.ListByStatus(ctx, domain.PaymentStatusToBeReturned)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if err := j.returnPayment(ctx, p); err != nil {
			j.logger.Error().Err(err).Str("payment_id", p.ID).Msg("payment return failed")
		}
	}
	return nil
}

func (j *PaymentJobs) returnPayment(ctx context.Context, p *domain.Payment) error {
	err := j.bank.SendTransfer(ctx, domain.OutboundTransfer{
		Reference:       DeriveReference(p.ID, RefTagReturn),
		BeneficiaryIBAN: p.RemitterIBAN,
		BeneficiaryName: p.RemitterName,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Description:     p.ReturnReason,
	})
	if err != nil {
		return err
	}

	if p.PartyID != nil {
		party, err := j.ledger.Party(ctx, *p.PartyID)
		if err != nil {
			return err
		}
		if _, err := j.operations.ReservePaymentForReturn(ctx, party, p.Amount, DeriveReference(p.ID, RefTagReturn)); err != nil {
			return err
		}
	} else {
		if _, err := j.operations.BounceBackUnattributedPayment(ctx, p.Amount, DeriveReference(p.ID, RefTagBounce)); err != nil {
			return err
		}
	}

	if _, err := j.payments.ChangeStatus(ctx, p.ID, domain.PaymentStatusReturned); err != nil {
		return err
	}
	return j.emit(ctx, domain.AggregateTypePayment, p.ID, domain.EventTypePaymentReturned, domain.PaymentReturnedEvent{
		PaymentID:    p.ID,
		Amount:       p.Amount.String(),
		Currency:     p.Currency,
		RemitterIBAN: p.RemitterIBAN,
		Reason:       p.ReturnReason,
	})
}

func (j *PaymentJobs) paymentParty(ctx context.Context, p *domain.Payment) (*domain.Party, error) {
	if p.PartyID == nil {
		return nil, domain.ErrPartyNotFound
	}
	return j.ledger.Party(ctx, *p.PartyID)
}

func (j *PaymentJobs) emit(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) error {
	tx, err := j.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	event := &domain.OutboxEvent{
		ID:            j.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     j.clock.Now(),
	}
	if err := j.outboxRepo.CreateTx(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
