package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// RedemptionJobs are the scheduled drivers of the redemption
// lifecycle: reserve units, price them at the calculated NAV, pay the
// cash out and settle. Every step is idempotent through derived
// external references and guarded status transitions.
type RedemptionJobs struct {
	redemptions    *RedemptionUseCase
	redemptionRepo RedemptionRepository
	ledger         *LedgerUseCase
	operations     *SavingsFundLedger
	transactions   *TransactionUseCase
	nav            *NavUseCase
	bank           BankGateway
	txManager      TransactionManager
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	clock          Clock
	logger         zerolog.Logger
	fund           string
}

// NewRedemptionJobs creates a new RedemptionJobs.
func NewRedemptionJobs(
	redemptions *RedemptionUseCase,
	redemptionRepo RedemptionRepository,
	ledger *LedgerUseCase,
	operations *SavingsFundLedger,
	transactions *TransactionUseCase,
	nav *NavUseCase,
	bank BankGateway,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
	fund string,
) *RedemptionJobs {
	return &RedemptionJobs{
		redemptions:    redemptions,
		redemptionRepo: redemptionRepo,
		ledger:         ledger,
		operations:     operations,
		transactions:   transactions,
		nav:            nav,
		bank:           bank,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		clock:          clock,
		logger:         logger,
		fund:           fund,
	}
}

// RunReservation reserves the units of every CREATED request.
func (j *RedemptionJobs) RunReservation(ctx context.Context) error {
	requests, err := j.redemptionRepo.ListByStatus(ctx, domain.RedemptionStatusCreated)
	if err != nil {
		return err
	}
	for _, r := range requests {
		if r.CancelledAt != nil {
			continue
		}
		if err := j.reserve(ctx, r); err != nil {
			j.logger.Error().Err(err).Str("redemption_id", r.ID).Msg("redemption reservation failed")
		}
	}
	return nil
}

func (j *RedemptionJobs) reserve(ctx context.Context, r *domain.RedemptionRequest) error {
	party, err := j.ledger.Party(ctx, r.PartyID)
	if err != nil {
		return err
	}
	if _, err := j.operations.ReserveFundUnitsForRedemption(ctx, party, r.Units, DeriveReference(r.ID, RefTagReserve)); err != nil {
		return err
	}
	_, err = j.redemptions.ChangeStatus(ctx, r.ID, domain.RedemptionStatusReserved)
	return err
}

// RunPricing prices every RESERVED request at the current NAV: the
// reserved units are retired and the cash owed is booked as a
// redemption payable.
func (j *RedemptionJobs) RunPricing(ctx context.Context) error {
	requests, err := j.redemptionRepo.ListByStatus(ctx, domain.RedemptionStatusReserved)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return nil
	}

	result, err := j.nav.Calculate(ctx, j.fund, j.clock.Now())
	if err != nil {
		return err
	}
	for _, r := range requests {
		if r.CancelledAt != nil {
			continue
		}
		if err := j.price(ctx, r, result); err != nil {
			j.logger.Error().Err(err).Str("redemption_id", r.ID).Msg("redemption pricing failed")
		}
	}
	return nil
}

func (j *RedemptionJobs) price(ctx context.Context, r *domain.RedemptionRequest, result *domain.NavResult) error {
	party, err := j.ledger.Party(ctx, r.PartyID)
	if err != nil {
		return err
	}
	cash := r.Units.Mul(result.NavPerUnit).Round(2)
	if _, err := j.operations.RedeemFundUnitsFromReserved(ctx, party, r.Units, cash, result.NavPerUnit, DeriveReference(r.ID, RefTagPricing)); err != nil {
		return err
	}
	_, err = j.redemptions.ChangeStatus(ctx, r.ID, domain.RedemptionStatusPriced)
	return err
}

// RunPayout pays out every PRICED request via the bank gateway and
// clears the redemption payable.
func (j *RedemptionJobs) RunPayout(ctx context.Context) error {
	requests, err := j.redemptionRepo.ListByStatus(ctx, domain.RedemptionStatusPriced)
	if err != nil {
		return err
	}
	for _, r := range requests {
		if err := j.payOut(ctx, r); err != nil {
			j.logger.Error().Err(err).Str("redemption_id", r.ID).Msg("redemption payout failed")
		}
	}
	return nil
}

func (j *RedemptionJobs) payOut(ctx context.Context, r *domain.RedemptionRequest) error {
	party, err := j.ledger.Party(ctx, r.PartyID)
	if err != nil {
		return err
	}
	cash, err := j.pricedAmount(ctx, r)
	if err != nil {
		return err
	}

	err = j.bank.SendTransfer(ctx, domain.OutboundTransfer{
		Reference:       DeriveReference(r.ID, RefTagPayout),
		BeneficiaryIBAN: r.BeneficiaryIBAN,
		BeneficiaryName: partyName(party),
		Amount:          cash,
		Currency:        "EUR",
		Description:     "Fund unit redemption",
	})
	if err != nil {
		return err
	}

	if _, err := j.operations.RecordRedemptionPayout(ctx, party, cash, DeriveReference(r.ID, RefTagPayout)); err != nil {
		return err
	}
	if _, err := j.redemptions.ChangeStatus(ctx, r.ID, domain.RedemptionStatusPaidOut); err != nil {
		return err
	}
	return j.emit(ctx, r.ID, domain.EventTypeRedemptionPaidOut, map[string]any{
		"redemption_id":    r.ID,
		"amount":           cash.String(),
		"beneficiary_iban": r.BeneficiaryIBAN,
	})
}

// pricedAmount recovers the cash owed from the pricing transaction,
// so payout never re-derives it from a possibly newer NAV.
func (j *RedemptionJobs) pricedAmount(ctx context.Context, r *domain.RedemptionRequest) (decimal.Decimal, error) {
	pricing, err := j.transactions.GetByExternalReference(ctx, DeriveReference(r.ID, RefTagPricing))
	if err != nil {
		return decimal.Decimal{}, err
	}
	raw, ok := pricing.Metadata[domain.MetaNavPerUnit].(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("pricing transaction %s carries no per-unit value: %w", pricing.ID, domain.ErrTransactionNotFound)
	}
	navPerUnit, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return r.Units.Mul(navPerUnit).Round(2), nil
}

// RunProcessing settles PAID_OUT requests whose payout entry is
// confirmed in the ledger.
func (j *RedemptionJobs) RunProcessing(ctx context.Context) error {
	requests, err := j.redemptionRepo.ListByStatus(ctx, domain.RedemptionStatusPaidOut)
	if err != nil {
		return err
	}
	for _, r := range requests {
		posted, err := j.operations.HasPayoutEntry(ctx, r.ID)
		if err != nil {
			j.logger.Error().Err(err).Str("redemption_id", r.ID).Msg("payout entry check failed")
			continue
		}
		if !posted {
			continue
		}
		if _, err := j.redemptions.ChangeStatus(ctx, r.ID, domain.RedemptionStatusProcessed); err != nil {
			j.logger.Error().Err(err).Str("redemption_id", r.ID).Msg("redemption processing failed")
		}
	}
	return nil
}

// RunCancellation completes cancellations of RESERVED requests: the
// reserved units go back to the member and the request closes.
func (j *RedemptionJobs) RunCancellation(ctx context.Context) error {
	requests, err := j.redemptionRepo.ListByStatus(ctx, domain.RedemptionStatusReserved)
	if err != nil {
		return err
	}
	for _, r := range requests {
		if r.CancelledAt == nil {
			continue
		}
		if err := j.cancel(ctx, r); err != nil {
			j.logger.Error().Err(err).Str("redemption_id", r.ID).Msg("redemption cancellation failed")
		}
	}
	return nil
}

func (j *RedemptionJobs) cancel(ctx context.Context, r *domain.RedemptionRequest) error {
	party, err := j.ledger.Party(ctx, r.PartyID)
	if err != nil {
		return err
	}
	if _, err := j.operations.ReleaseReservedFundUnits(ctx, party, r.Units, DeriveReference(r.ID, RefTagRelease)); err != nil {
		return err
	}
	_, err = j.redemptions.ChangeStatus(ctx, r.ID, domain.RedemptionStatusCancelled)
	return err
}

func (j *RedemptionJobs) emit(ctx context.Context, aggregateID, eventType string, payload any) error {
	tx, err := j.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	event := &domain.OutboxEvent{
		ID:            j.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeRedemption,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     j.clock.Now(),
	}
	if err := j.outboxRepo.CreateTx(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func partyName(p *domain.Party) string {
	if name, ok := p.Details["name"].(string); ok {
		return name
	}
	return ""
}
