package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// PositionReportRepository stores custodian position reports. Reports
// arrive through the intake endpoint and are the market-value input of
// the NAV calculation.
type PositionReportRepository struct {
	pool *pgxpool.Pool
}

// NewPositionReportRepository creates a new PositionReportRepository.
func NewPositionReportRepository(pool *pgxpool.Pool) *PositionReportRepository {
	return &PositionReportRepository{pool: pool}
}

type positionLine struct {
	ISIN        string `json:"isin"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	MarketValue string `json:"market_value"`
}

// Save upserts a report for (fund, date). A re-delivered report for
// the same day replaces the earlier one.
func (r *PositionReportRepository) Save(ctx context.Context, report *domain.PositionReport) error {
	lines := make([]positionLine, 0, len(report.Positions))
	for _, p := range report.Positions {
		lines = append(lines, positionLine{
			ISIN:        p.ISIN,
			Name:        p.Name,
			Quantity:    p.Quantity.String(),
			MarketValue: p.MarketValue.String(),
		})
	}
	positions, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	query := `
		INSERT INTO position_report (fund, report_date, price_date, positions, units_outstanding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fund, report_date) DO UPDATE
		SET price_date = EXCLUDED.price_date,
		    positions = EXCLUDED.positions,
		    units_outstanding = EXCLUDED.units_outstanding
	`
	_, err = r.pool.Exec(ctx, query,
		report.Fund,
		report.Date,
		report.PriceDate,
		positions,
		decimalToNumeric(report.UnitsOutstanding),
	)
	if err != nil {
		return fmt.Errorf("save position report: %w", err)
	}
	return nil
}

// LatestReport returns the newest report dated at or before date.
func (r *PositionReportRepository) LatestReport(ctx context.Context, fund string, date time.Time) (*domain.PositionReport, error) {
	query := `
		SELECT fund, report_date, price_date, positions, units_outstanding
		FROM position_report
		WHERE fund = $1 AND report_date <= $2
		ORDER BY report_date DESC
		LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query, fund, date)

	var (
		report    domain.PositionReport
		positions []byte
		units     pgtype.Numeric
	)
	err := row.Scan(&report.Fund, &report.Date, &report.PriceDate, &positions, &units)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: fund %s as of %s", domain.ErrNoPositionReport, fund, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("get position report: %w", err)
	}
	report.UnitsOutstanding = numericToDecimal(units)

	var lines []positionLine
	if err := json.Unmarshal(positions, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal positions: %w", err)
	}
	for _, l := range lines {
		quantity, err := decimal.NewFromString(l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("parse position quantity: %w", err)
		}
		value, err := decimal.NewFromString(l.MarketValue)
		if err != nil {
			return nil, fmt.Errorf("parse position market value: %w", err)
		}
		report.Positions = append(report.Positions, domain.Position{
			ISIN:        l.ISIN,
			Name:        l.Name,
			Quantity:    quantity,
			MarketValue: value,
		})
	}
	return &report, nil
}
