package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, party_id, purpose, name, accounting_type, asset_type, created_at`

// Create creates a new account. Returns domain.ErrAlreadyExists when
// the account key is already taken; the unique indexes on
// (party_id, name) and on name for system accounts arbitrate racing
// find-or-create calls.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ledger.account (id, party_id, purpose, name, accounting_type, asset_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, textPtr(account.PartyID), account.Purpose, account.Name,
		account.AccountingType, account.AssetType, timeToPgTimestamptz(account.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM ledger.account
		WHERE id = $1`,
		id,
	)

	return scanAccount(row)
}

// GetByIDs retrieves multiple accounts by IDs.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM ledger.account
		WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(ids))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// GetUserAccount retrieves a party's account of the given kind.
func (r *AccountRepository) GetUserAccount(ctx context.Context, partyID string, kind domain.UserAccountKind) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM ledger.account
		WHERE party_id = $1 AND name = $2 AND purpose = $3`,
		partyID, string(kind), domain.PurposeUserAccount,
	)

	return scanAccount(row)
}

// GetSystemAccount retrieves a system account by name.
func (r *AccountRepository) GetSystemAccount(ctx context.Context, name domain.SystemAccountName) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM ledger.account
		WHERE name = $1 AND purpose = $2`,
		string(name), domain.PurposeSystemAccount,
	)

	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		partyID   pgtype.Text
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(
		&account.ID, &partyID, &account.Purpose, &account.Name,
		&account.AccountingType, &account.AssetType, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.PartyID = pgTextToPtr(partyID)
	account.CreatedAt = createdAt.Time

	return &account, nil
}
