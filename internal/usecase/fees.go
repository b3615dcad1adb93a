package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// Fee kinds recorded in accrual transaction metadata.
const (
	FeeKindManagement  = "MANAGEMENT"
	FeeKindDepot       = "DEPOT"
	FeeKindCustody     = "CUSTODY"
	FeeKindTransaction = "TRANSACTION"
)

// FeeScale is the decimal scale of accrued fee amounts.
const FeeScale = 2

func daysInYear(date time.Time) int64 {
	year := date.Year()
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

// DailyFee returns one day's accrual of an annual rate on a base
// amount, rounded half up to cents. The divisor follows the calendar
// year the date falls in.
func DailyFee(base, annualRate decimal.Decimal, date time.Time) decimal.Decimal {
	return base.Mul(annualRate).DivRound(decimal.NewFromInt(daysInYear(date)), FeeScale)
}

// WithVAT grosses up a net fee by the given VAT rate.
func WithVAT(net, vatRate decimal.Decimal) decimal.Decimal {
	return net.Mul(decimal.NewFromInt(1).Add(vatRate)).Round(FeeScale)
}

// AumTier binds an annual fee rate to an assets-under-management band.
// A zero UpTo marks the unbounded top tier.
type AumTier struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// TieredRate returns the rate of the first tier whose band contains
// the AUM snapshot. Tiers must be ordered by ascending UpTo with the
// unbounded tier last.
func TieredRate(tiers []AumTier, aum decimal.Decimal) decimal.Decimal {
	for _, tier := range tiers {
		if tier.UpTo.IsZero() || aum.LessThanOrEqual(tier.UpTo) {
			return tier.Rate
		}
	}
	return decimal.Zero
}

// MonthlyRate is a fee rate effective from the first day of a month.
type MonthlyRate struct {
	Year  int
	Month time.Month
	Rate  decimal.Decimal
}

// EffectiveRate returns the most recent rate whose effective month is
// not after the date. Rates must be ordered by ascending month.
func EffectiveRate(rates []MonthlyRate, date time.Time) (decimal.Decimal, bool) {
	var (
		rate  decimal.Decimal
		found bool
	)
	for _, r := range rates {
		effective := time.Date(r.Year, r.Month, 1, 0, 0, 0, 0, time.UTC)
		if effective.After(date) {
			break
		}
		rate = r.Rate
		found = true
	}
	return rate, found
}

// FeeConfig is the fund's fee schedule.
type FeeConfig struct {
	ManagementTiers []AumTier
	DepotRates      []MonthlyRate
	VATRate         decimal.Decimal
}

// FeeUseCase books the daily management and depot fee accruals.
type FeeUseCase struct {
	ledger     *LedgerUseCase
	operations *SavingsFundLedger
	config     FeeConfig
}

// NewFeeUseCase creates a new FeeUseCase.
func NewFeeUseCase(ledger *LedgerUseCase, operations *SavingsFundLedger, config FeeConfig) *FeeUseCase {
	return &FeeUseCase{ledger: ledger, operations: operations, config: config}
}

// AccrueDailyFees posts one day's fee accruals based on the current
// AUM snapshot. Re-running for the same date is a no-op because the
// accrual references are derived from the fee kind and date.
func (u *FeeUseCase) AccrueDailyFees(ctx context.Context, date time.Time) error {
	aum, err := u.aum(ctx)
	if err != nil {
		return err
	}

	managementFee := DailyFee(aum, TieredRate(u.config.ManagementTiers, aum), date)
	if managementFee.GreaterThan(decimal.Zero) {
		if _, err := u.operations.RecordFeeAccrual(ctx, domain.SystemManagementFeeAccrual, FeeKindManagement, date, managementFee); err != nil {
			return err
		}
	}

	if depotRate, ok := EffectiveRate(u.config.DepotRates, date); ok {
		depotFee := WithVAT(DailyFee(aum, depotRate, date), u.config.VATRate)
		if depotFee.GreaterThan(decimal.Zero) {
			if _, err := u.operations.RecordFeeAccrual(ctx, domain.SystemDepotFeeAccrual, FeeKindDepot, date, depotFee); err != nil {
				return err
			}
		}
	}
	return nil
}

// aum is the assets-under-management snapshot: securities plus cash.
func (u *FeeUseCase) aum(ctx context.Context) (decimal.Decimal, error) {
	securities, err := u.ledger.SystemBalance(ctx, domain.SystemSecuritiesValue)
	if err != nil {
		return decimal.Decimal{}, err
	}
	cash, err := u.ledger.SystemBalance(ctx, domain.SystemCashPosition)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return securities.Add(cash), nil
}
