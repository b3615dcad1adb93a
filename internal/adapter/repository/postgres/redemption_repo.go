package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// RedemptionRepository implements usecase.RedemptionRepository.
type RedemptionRepository struct {
	pool *pgxpool.Pool
}

// NewRedemptionRepository creates a new RedemptionRepository.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

const redemptionColumns = `id, party_id, units, beneficiary_iban, status, status_changed_at, created_at, cancelled_at`

// Create creates a new redemption request.
func (r *RedemptionRepository) Create(ctx context.Context, request *domain.RedemptionRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO redemption_request (id, party_id, units, beneficiary_iban, status, status_changed_at, created_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		request.ID, request.PartyID, decimalToNumeric(request.Units), request.BeneficiaryIBAN,
		request.Status, timeToPgTimestamptz(request.StatusChangedAt),
		timeToPgTimestamptz(request.CreatedAt), timePtrToPgTimestamptz(request.CancelledAt),
	)

	return err
}

// GetByID retrieves a redemption request by ID.
func (r *RedemptionRepository) GetByID(ctx context.Context, id string) (*domain.RedemptionRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+redemptionColumns+`
		FROM redemption_request
		WHERE id = $1`,
		id,
	)

	return scanRedemption(row)
}

// GetByIDForUpdate retrieves a redemption request with a FOR UPDATE lock.
func (r *RedemptionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.RedemptionRequest, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+redemptionColumns+`
		FROM redemption_request
		WHERE id = $1
		FOR UPDATE`,
		id,
	)

	return scanRedemption(row)
}

// UpdateTx updates a redemption request within the caller's transaction.
func (r *RedemptionRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, request *domain.RedemptionRequest) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE redemption_request
		SET status = $2, status_changed_at = $3, cancelled_at = $4
		WHERE id = $1`,
		request.ID, request.Status, timeToPgTimestamptz(request.StatusChangedAt),
		timePtrToPgTimestamptz(request.CancelledAt),
	)

	return err
}

// ListByStatus lists redemption requests in the given status, oldest
// first.
func (r *RedemptionRepository) ListByStatus(ctx context.Context, status domain.RedemptionStatus) ([]*domain.RedemptionRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+redemptionColumns+`
		FROM redemption_request
		WHERE status = $1
		ORDER BY created_at`,
		status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.RedemptionRequest
	for rows.Next() {
		request, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

func scanRedemption(row pgx.Row) (*domain.RedemptionRequest, error) {
	var (
		request         domain.RedemptionRequest
		units           pgtype.Numeric
		statusChangedAt pgtype.Timestamptz
		createdAt       pgtype.Timestamptz
		cancelledAt     pgtype.Timestamptz
	)
	err := row.Scan(
		&request.ID, &request.PartyID, &units, &request.BeneficiaryIBAN,
		&request.Status, &statusChangedAt, &createdAt, &cancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRedemptionNotFound
		}

		return nil, err
	}

	request.Units = numericToDecimal(units)
	request.StatusChangedAt = statusChangedAt.Time
	request.CreatedAt = createdAt.Time
	request.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)

	return &request, nil
}
