package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NavPerUnitScale is the fixed decimal scale of the published per-unit
// value, rounded half-up.
const NavPerUnitScale = 5

// NavResult is the outcome of one NAV calculation. It carries the
// position and price reference dates separately from the calculation
// date because the custodian feed may lag over weekends.
type NavResult struct {
	Fund                   string
	Date                   time.Time
	PositionDate           time.Time
	PriceDate              time.Time
	PreliminaryNav         decimal.Decimal
	PendingRedemptionValue decimal.Decimal
	FinalNav               decimal.Decimal
	UnitsOutstanding       decimal.Decimal
	NavPerUnit             decimal.Decimal
	CalculatedAt           time.Time
}
