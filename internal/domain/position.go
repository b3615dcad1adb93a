package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one security-level market value line from the custodian.
type Position struct {
	ISIN        string
	Name        string
	Quantity    decimal.Decimal
	MarketValue decimal.Decimal
}

// PositionReport is the custodian's view of a fund on a date. Its
// units-outstanding figure is independent of the ledger and is used
// for reconciliation, not for NAV division.
type PositionReport struct {
	Fund             string
	Date             time.Time
	PriceDate        time.Time
	Positions        []Position
	UnitsOutstanding decimal.Decimal
}

// TotalMarketValue sums the security-level market values.
func (r *PositionReport) TotalMarketValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Positions {
		total = total.Add(p.MarketValue)
	}
	return total
}
