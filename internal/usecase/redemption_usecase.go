package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// RedemptionUseCase handles redemption request intake and guarded
// status changes.
type RedemptionUseCase struct {
	redemptionRepo RedemptionRepository
	txManager      TransactionManager
	idGen          IDGenerator
	clock          Clock
	logger         zerolog.Logger
}

// NewRedemptionUseCase creates a new RedemptionUseCase.
func NewRedemptionUseCase(
	redemptionRepo RedemptionRepository,
	txManager TransactionManager,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
) *RedemptionUseCase {
	return &RedemptionUseCase{
		redemptionRepo: redemptionRepo,
		txManager:      txManager,
		idGen:          idGen,
		clock:          clock,
		logger:         logger,
	}
}

// CreateRequest records a member's request to redeem fund units.
func (uc *RedemptionUseCase) CreateRequest(ctx context.Context, partyID string, units decimal.Decimal, beneficiaryIBAN string) (*domain.RedemptionRequest, error) {
	if units.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	now := uc.clock.Now()
	request := &domain.RedemptionRequest{
		ID:              uc.idGen.Generate(),
		PartyID:         partyID,
		Units:           units,
		BeneficiaryIBAN: beneficiaryIBAN,
		Status:          domain.RedemptionStatusCreated,
		StatusChangedAt: now,
		CreatedAt:       now,
	}
	if err := uc.redemptionRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	uc.logger.Info().
		Str("redemption_id", request.ID).
		Str("units", units.String()).
		Msg("redemption request created")
	return request, nil
}

// Cancel cancels a request that has not been priced yet. Once units
// are priced the redemption is committed and can only complete. A
// CREATED request cancels immediately; a RESERVED one is flagged and
// completed by the cancellation job, which first releases the
// reserved units.
func (uc *RedemptionUseCase) Cancel(ctx context.Context, id string) (*domain.RedemptionRequest, error) {
	return uc.update(ctx, id, func(r *domain.RedemptionRequest) error {
		now := uc.clock.Now()
		if r.CancelledAt == nil {
			r.CancelledAt = &now
		}
		if r.Status == domain.RedemptionStatusCreated {
			return r.Transition(domain.RedemptionStatusCancelled, now)
		}
		if r.Status != domain.RedemptionStatusReserved {
			return fmt.Errorf("%w: redemption %s, %s -> %s", domain.ErrIllegalStatusTransition, r.ID, r.Status, domain.RedemptionStatusCancelled)
		}
		return nil
	})
}

// ChangeStatus transitions a request under a row lock.
func (uc *RedemptionUseCase) ChangeStatus(ctx context.Context, id string, next domain.RedemptionStatus) (*domain.RedemptionRequest, error) {
	return uc.update(ctx, id, func(r *domain.RedemptionRequest) error {
		return r.Transition(next, uc.clock.Now())
	})
}

// GetRequest returns a redemption request by id.
func (uc *RedemptionUseCase) GetRequest(ctx context.Context, id string) (*domain.RedemptionRequest, error) {
	return uc.redemptionRepo.GetByID(ctx, id)
}

func (uc *RedemptionUseCase) update(ctx context.Context, id string, mutate func(*domain.RedemptionRequest) error) (*domain.RedemptionRequest, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	request, err := uc.redemptionRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(request); err != nil {
		return nil, err
	}
	if err := uc.redemptionRepo.UpdateTx(ctx, tx, request); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return request, nil
}
