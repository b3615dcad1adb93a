package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, party_id, amount, currency, description, remitter_iban, remitter_id_code,
	remitter_name, external_id, received_before, status, status_changed_at, created_at, cancelled_at, return_reason`

// Create creates a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO saving_fund_payment (id, party_id, amount, currency, description, remitter_iban,
			remitter_id_code, remitter_name, external_id, received_before, status, status_changed_at,
			created_at, cancelled_at, return_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		payment.ID, textPtr(payment.PartyID), decimalToNumeric(payment.Amount), payment.Currency,
		payment.Description, payment.RemitterIBAN, payment.RemitterIDCode, payment.RemitterName,
		textPtr(payment.ExternalID), timeToPgTimestamptz(payment.ReceivedBefore), payment.Status,
		timeToPgTimestamptz(payment.StatusChangedAt), timeToPgTimestamptz(payment.CreatedAt),
		timePtrToPgTimestamptz(payment.CancelledAt), payment.ReturnReason,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, r.pool, `WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a payment by ID with a FOR UPDATE lock.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return r.get(ctx, pgxTx, `WHERE id = $1 FOR UPDATE`, id)
}

// GetByExternalID retrieves a payment by the bank-assigned external ID.
func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Payment, error) {
	return r.get(ctx, r.pool, `WHERE external_id = $1`, externalID)
}

// FindMatch looks for a recent payment in the given statuses with the
// same description, amount and remitter IBAN.
func (r *PaymentRepository) FindMatch(ctx context.Context, description string, amount decimal.Decimal, remitterIBAN string, statuses []domain.PaymentStatus, since time.Time) (*domain.Payment, error) {
	return r.get(ctx, r.pool, `
		WHERE description = $1 AND amount = $2 AND remitter_iban = $3
		  AND status = ANY($4) AND created_at >= $5
		ORDER BY created_at
		LIMIT 1`,
		description, decimalToNumeric(amount), remitterIBAN, statusStrings(statuses), timeToPgTimestamptz(since),
	)
}

// UpdateTx updates a payment within the caller's transaction.
func (r *PaymentRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE saving_fund_payment
		SET party_id = $2, amount = $3, currency = $4, description = $5, remitter_iban = $6,
			remitter_id_code = $7, remitter_name = $8, external_id = $9, received_before = $10,
			status = $11, status_changed_at = $12, cancelled_at = $13, return_reason = $14
		WHERE id = $1`,
		payment.ID, textPtr(payment.PartyID), decimalToNumeric(payment.Amount), payment.Currency,
		payment.Description, payment.RemitterIBAN, payment.RemitterIDCode, payment.RemitterName,
		textPtr(payment.ExternalID), timeToPgTimestamptz(payment.ReceivedBefore), payment.Status,
		timeToPgTimestamptz(payment.StatusChangedAt), timePtrToPgTimestamptz(payment.CancelledAt),
		payment.ReturnReason,
	)

	return err
}

// ListByStatus lists payments in the given status, oldest first.
func (r *PaymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	return r.list(ctx, `WHERE status = $1 ORDER BY created_at`, status)
}

// ListCancelled lists user-cancelled payments still in one of the
// given statuses.
func (r *PaymentRepository) ListCancelled(ctx context.Context, statuses []domain.PaymentStatus) ([]*domain.Payment, error) {
	return r.list(ctx, `WHERE cancelled_at IS NOT NULL AND status = ANY($1) ORDER BY created_at`, statusStrings(statuses))
}

func (r *PaymentRepository) get(ctx context.Context, q querier, clause string, args ...any) (*domain.Payment, error) {
	row := q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM saving_fund_payment `+clause, args...)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}

		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) list(ctx context.Context, clause string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM saving_fund_payment `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		payment         domain.Payment
		partyID         pgtype.Text
		amount          pgtype.Numeric
		externalID      pgtype.Text
		receivedBefore  pgtype.Timestamptz
		statusChangedAt pgtype.Timestamptz
		createdAt       pgtype.Timestamptz
		cancelledAt     pgtype.Timestamptz
	)
	err := row.Scan(
		&payment.ID, &partyID, &amount, &payment.Currency, &payment.Description,
		&payment.RemitterIBAN, &payment.RemitterIDCode, &payment.RemitterName, &externalID,
		&receivedBefore, &payment.Status, &statusChangedAt, &createdAt, &cancelledAt,
		&payment.ReturnReason,
	)
	if err != nil {
		return nil, err
	}

	payment.PartyID = pgTextToPtr(partyID)
	payment.Amount = numericToDecimal(amount)
	payment.ExternalID = pgTextToPtr(externalID)
	payment.ReceivedBefore = receivedBefore.Time
	payment.StatusChangedAt = statusChangedAt.Time
	payment.CreatedAt = createdAt.Time
	payment.CancelledAt = pgTimestamptzToTimePtr(cancelledAt)

	return &payment, nil
}

func statusStrings(statuses []domain.PaymentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}

	return out
}
