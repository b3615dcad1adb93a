package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, type, description, metadata, external_reference, transaction_date, created_at`

// CreateTx inserts the transaction header within the caller's
// transaction. Returns domain.ErrDuplicateExternalReference when the
// partial unique index on external_reference fires.
func (r *TransactionRepository) CreateTx(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	metadata, err := json.Marshal(txn.Metadata)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO ledger.transaction (id, type, description, metadata, external_reference, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID, txn.Type, txn.Description, metadata, textPtr(txn.ExternalReference),
		timeToPgTimestamptz(txn.TransactionDate), timeToPgTimestamptz(txn.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateExternalReference
	}

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM ledger.transaction
		WHERE id = $1`,
		id,
	)

	return scanTransaction(row)
}

// GetByExternalReference retrieves a transaction by its external
// reference.
func (r *TransactionRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM ledger.transaction
		WHERE external_reference = $1`,
		ref,
	)

	return scanTransaction(row)
}

// ExistsByExternalReference reports whether a transaction with the
// external reference exists.
func (r *TransactionRepository) ExistsByExternalReference(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ledger.transaction WHERE external_reference = $1
		)`,
		ref,
	).Scan(&exists)

	return exists, err
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn             domain.Transaction
		metadata        []byte
		externalRef     pgtype.Text
		transactionDate pgtype.Timestamptz
		createdAt       pgtype.Timestamptz
	)
	err := row.Scan(&txn.ID, &txn.Type, &txn.Description, &metadata, &externalRef, &transactionDate, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &txn.Metadata); err != nil {
			return nil, err
		}
	}
	txn.ExternalReference = pgTextToPtr(externalRef)
	txn.TransactionDate = transactionDate.Time
	txn.CreatedAt = createdAt.Time

	return &txn, nil
}
