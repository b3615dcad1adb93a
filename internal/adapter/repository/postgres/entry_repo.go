package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository. Entries are
// append-only; no update or delete exists anywhere in this package.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// CreateTx inserts an entry within the caller's transaction.
func (r *EntryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO ledger.entry (id, account_id, transaction_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.AccountID, entry.TransactionID,
		decimalToNumeric(entry.Amount), timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// ListByAccount retrieves the account's entries ordered by creation.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, transaction_id, amount, created_at
		FROM ledger.entry
		WHERE account_id = $1
		ORDER BY created_at, id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var (
			entry     domain.Entry
			amount    pgtype.Numeric
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.TransactionID, &amount, &createdAt); err != nil {
			return nil, err
		}
		entry.Amount = numericToDecimal(amount)
		entry.CreatedAt = createdAt.Time
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Balance returns the signed sum of the account's entries, zero for an
// account with no entries.
func (r *EntryRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger.entry
		WHERE account_id = $1`,
		accountID,
	).Scan(&sum)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return numericToDecimal(sum), nil
}

// BalanceAsOf returns the sum of entries created at or before the
// given instant.
func (r *EntryRepository) BalanceAsOf(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger.entry
		WHERE account_id = $1 AND created_at <= $2`,
		accountID, timeToPgTimestamptz(at),
	).Scan(&sum)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return numericToDecimal(sum), nil
}

// SumBalanceByAccountName sums entry amounts over every user account
// with the given name and asset type.
func (r *EntryRepository) SumBalanceByAccountName(ctx context.Context, name string, asset domain.AssetType) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(e.amount), 0)
		FROM ledger.entry e
		JOIN ledger.account a ON a.id = e.account_id
		WHERE a.name = $1 AND a.asset_type = $2 AND a.purpose = $3`,
		name, asset, domain.PurposeUserAccount,
	).Scan(&sum)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return numericToDecimal(sum), nil
}
