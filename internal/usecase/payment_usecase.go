package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// matchWindow bounds how far back deduplication matching by
// (description, amount, remitter IBAN) looks.
const matchWindow = 30 * 24 * time.Hour

// PaymentUseCase handles payment intake, deduplication and guarded
// status changes.
type PaymentUseCase struct {
	paymentRepo PaymentRepository
	txManager   TransactionManager
	idGen       IDGenerator
	clock       Clock
	logger      zerolog.Logger
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	paymentRepo PaymentRepository,
	txManager TransactionManager,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		paymentRepo: paymentRepo,
		txManager:   txManager,
		idGen:       idGen,
		clock:       clock,
		logger:      logger,
	}
}

// RegisterIncoming records one observation of an incoming transfer,
// from a bank statement or a payment processor notification. A second
// observation of the same transfer merges into the existing payment
// instead of creating a duplicate: matched by external id first, then
// by (description, amount, remitter IBAN) among recent payments still
// in a mergeable status.
func (uc *PaymentUseCase) RegisterIncoming(ctx context.Context, incoming *domain.Payment) (*domain.Payment, error) {
	existing, err := uc.findExisting(ctx, incoming)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return uc.merge(ctx, existing.ID, incoming)
	}

	now := uc.clock.Now()
	incoming.ID = uc.idGen.Generate()
	incoming.Status = domain.PaymentStatusReceived
	incoming.StatusChangedAt = now
	incoming.CreatedAt = now
	if incoming.ReceivedBefore.IsZero() {
		incoming.ReceivedBefore = now
	}
	if err := uc.paymentRepo.Create(ctx, incoming); err != nil {
		return nil, err
	}
	uc.logger.Info().
		Str("payment_id", incoming.ID).
		Str("amount", incoming.Amount.String()).
		Msg("payment received")
	return incoming, nil
}

func (uc *PaymentUseCase) findExisting(ctx context.Context, incoming *domain.Payment) (*domain.Payment, error) {
	if incoming.ExternalID != nil {
		existing, err := uc.paymentRepo.GetByExternalID(ctx, *incoming.ExternalID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, err
		}
	}

	since := uc.clock.Now().Add(-matchWindow)
	existing, err := uc.paymentRepo.FindMatch(ctx, incoming.Description, incoming.Amount, incoming.RemitterIBAN, domain.MergeableStatuses(), since)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}

// merge folds the incoming observation into the stored payment under a
// row lock. A payment still in CREATED moves to RECEIVED, since the
// second observation confirms the money arrived.
func (uc *PaymentUseCase) merge(ctx context.Context, id string, incoming *domain.Payment) (*domain.Payment, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	payment, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := payment.Merge(incoming); err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentStatusCreated {
		if err := payment.Transition(domain.PaymentStatusReceived, uc.clock.Now()); err != nil {
			return nil, err
		}
	}
	if err := uc.paymentRepo.UpdateTx(ctx, tx, payment); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	uc.logger.Info().
		Str("payment_id", payment.ID).
		Msg("payment observation merged")
	return payment, nil
}

// IngestStatement registers every credit line of a bank statement as
// an incoming payment observation. Debit lines are the fund's own
// outbound transfers, not intake. Re-submitting a statement merges
// into the existing payments instead of duplicating them.
func (uc *PaymentUseCase) IngestStatement(ctx context.Context, statement *domain.Statement) ([]*domain.Payment, error) {
	var registered []*domain.Payment
	for _, entry := range statement.Entries {
		if entry.Direction != domain.DirectionCredit {
			continue
		}
		payment := &domain.Payment{
			Amount:         entry.Amount,
			Currency:       entry.Currency,
			Description:    entry.Description,
			RemitterIBAN:   entry.CounterpartyIBAN,
			RemitterIDCode: entry.CounterpartyIDCode,
			RemitterName:   entry.CounterpartyName,
			ReceivedBefore: entry.BookedAt,
		}
		if entry.ExternalID != "" {
			externalID := entry.ExternalID
			payment.ExternalID = &externalID
		}
		result, err := uc.RegisterIncoming(ctx, payment)
		if err != nil {
			return registered, err
		}
		registered = append(registered, result)
	}
	return registered, nil
}

// CreateIntent records a payment the member announced through the app
// before any money has moved.
func (uc *PaymentUseCase) CreateIntent(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	now := uc.clock.Now()
	payment.ID = uc.idGen.Generate()
	payment.Status = domain.PaymentStatusCreated
	payment.StatusChangedAt = now
	payment.CreatedAt = now
	if err := uc.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// ChangeStatus transitions a payment under a row lock. An illegal
// transition fails with ErrIllegalStatusTransition and leaves the
// payment untouched.
func (uc *PaymentUseCase) ChangeStatus(ctx context.Context, id string, next domain.PaymentStatus) (*domain.Payment, error) {
	return uc.update(ctx, id, func(p *domain.Payment) error {
		return p.Transition(next, uc.clock.Now())
	})
}

// Cancel flags a payment as cancelled on the member's request. The
// cancellation job picks it up once its deadline passes; the status
// itself does not change here.
func (uc *PaymentUseCase) Cancel(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.update(ctx, id, func(p *domain.Payment) error {
		if p.CancelledAt == nil {
			now := uc.clock.Now()
			p.CancelledAt = &now
		}
		return nil
	})
}

// Freeze parks a suspicious payment for back-office investigation.
// Only a payment still in RECEIVED can be frozen; a frozen payment
// leaves the automated pipeline for good.
func (uc *PaymentUseCase) Freeze(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := uc.update(ctx, id, func(p *domain.Payment) error {
		return p.Transition(domain.PaymentStatusFrozen, uc.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Warn().
		Str("payment_id", payment.ID).
		Msg("payment frozen")
	return payment, nil
}

// GetPayment returns a payment by id.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}

func (uc *PaymentUseCase) update(ctx context.Context, id string, mutate func(*domain.Payment) error) (*domain.Payment, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	payment, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(payment); err != nil {
		return nil, err
	}
	if err := uc.paymentRepo.UpdateTx(ctx, tx, payment); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return payment, nil
}
