package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// NavUseCase computes the fund's net asset value from ledger balances
// and the custodian position feed.
type NavUseCase struct {
	ledger     *LedgerUseCase
	operations *SavingsFundLedger
	positions  PositionReportSource
	txManager  TransactionManager
	outboxRepo OutboxRepository
	idGen      IDGenerator
	clock      Clock
}

// NewNavUseCase creates a new NavUseCase.
func NewNavUseCase(
	ledger *LedgerUseCase,
	operations *SavingsFundLedger,
	positions PositionReportSource,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
) *NavUseCase {
	return &NavUseCase{
		ledger:     ledger,
		operations: operations,
		positions:  positions,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		clock:      clock,
	}
}

// Calculate computes the NAV for a fund as of a date. It only reads;
// nothing is posted. Given identical ledger balances and position
// data, the result is bit-identical across invocations.
//
// The calculation is two-pass: pending redemptions must be priced at
// the NAV being produced, so a preliminary NAV is computed first,
// pending redemption units are valued at the preliminary per-unit
// price and their value is then subtracted to get the final NAV.
func (uc *NavUseCase) Calculate(ctx context.Context, fund string, date time.Time) (*domain.NavResult, error) {
	report, err := uc.positions.LatestReport(ctx, fund, date)
	if err != nil {
		return nil, err
	}

	assets := decimal.Zero
	for _, name := range []domain.SystemAccountName{
		domain.SystemSecuritiesValue,
		domain.SystemCashPosition,
		domain.SystemTradeReceivables,
	} {
		balance, err := uc.ledger.SystemBalance(ctx, name)
		if err != nil {
			return nil, err
		}
		assets = assets.Add(balance)
	}

	liabilities := decimal.Zero
	for _, name := range []domain.SystemAccountName{
		domain.SystemTradePayables,
		domain.SystemManagementFeeAccrual,
		domain.SystemDepotFeeAccrual,
		domain.SystemRedemptionPayables,
	} {
		balance, err := uc.ledger.SystemBalance(ctx, name)
		if err != nil {
			return nil, err
		}
		liabilities = liabilities.Add(balance)
	}

	pendingSubscriptions, err := uc.ledger.SumUserBalances(ctx, domain.UserAccountCashReserved)
	if err != nil {
		return nil, err
	}
	manualAdjustment, err := uc.ledger.SystemBalance(ctx, domain.SystemManualAdjustment)
	if err != nil {
		return nil, err
	}

	preliminaryNav := assets.Sub(liabilities).Add(pendingSubscriptions).Add(manualAdjustment)

	outstandingBalance, err := uc.ledger.SystemBalance(ctx, domain.SystemFundUnitsOutstanding)
	if err != nil {
		return nil, err
	}
	// Outstanding units sit on the liability side as a negative balance.
	unitsOutstanding := outstandingBalance.Neg()

	preliminaryPerUnit := perUnit(preliminaryNav, unitsOutstanding)

	pendingRedemptionUnits, err := uc.ledger.SumUserBalances(ctx, domain.UserAccountFundUnitsReserved)
	if err != nil {
		return nil, err
	}
	pendingRedemptionValue := pendingRedemptionUnits.Mul(preliminaryPerUnit).Round(2)

	finalNav := preliminaryNav.Sub(pendingRedemptionValue)

	return &domain.NavResult{
		Fund:                   fund,
		Date:                   date,
		PositionDate:           report.Date,
		PriceDate:              report.PriceDate,
		PreliminaryNav:         preliminaryNav,
		PendingRedemptionValue: pendingRedemptionValue,
		FinalNav:               finalNav,
		UnitsOutstanding:       unitsOutstanding,
		NavPerUnit:             perUnit(finalNav, unitsOutstanding),
		CalculatedAt:           uc.clock.Now(),
	}, nil
}

func perUnit(nav, units decimal.Decimal) decimal.Decimal {
	if units.IsZero() {
		return decimal.New(1, 0)
	}
	return nav.DivRound(units, domain.NavPerUnitScale)
}

// Publish revalues the securities position from the latest custodian
// report, calculates the NAV and records a nav.calculated outbox
// event. Safe to re-run for the same date.
func (uc *NavUseCase) Publish(ctx context.Context, fund string, date time.Time) (*domain.NavResult, error) {
	report, err := uc.positions.LatestReport(ctx, fund, date)
	if err != nil {
		return nil, err
	}
	if _, err := uc.operations.RecordPositionSnapshot(ctx, report); err != nil {
		return nil, err
	}

	result, err := uc.Calculate(ctx, fund, date)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   fund,
		AggregateType: domain.AggregateTypeFund,
		EventType:     domain.EventTypeNavCalculated,
		Payload: domain.NavCalculatedEvent{
			Fund:             fund,
			Date:             date.Format("2006-01-02"),
			NavPerUnit:       result.NavPerUnit.String(),
			FinalNav:         result.FinalNav.String(),
			UnitsOutstanding: result.UnitsOutstanding.String(),
		},
		CreatedAt: uc.clock.Now(),
	}
	if err := uc.outboxRepo.CreateTx(ctx, tx, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
