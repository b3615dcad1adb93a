package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// PartyRepository implements usecase.PartyRepository.
type PartyRepository struct {
	pool *pgxpool.Pool
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{pool: pool}
}

const partyColumns = `id, type, owner_id, details, created_at`

// Create creates a new party. Returns domain.ErrAlreadyExists when a
// party with the same (type, owner_id) already exists.
func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	details, err := json.Marshal(party.Details)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO ledger.party (id, type, owner_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		party.ID, party.Type, party.OwnerID, details, timeToPgTimestamptz(party.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}

	return err
}

// GetByID retrieves a party by ID.
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+partyColumns+`
		FROM ledger.party
		WHERE id = $1`,
		id,
	)

	return scanParty(row)
}

// GetByOwnerID retrieves a party by type and owner ID.
func (r *PartyRepository) GetByOwnerID(ctx context.Context, partyType domain.PartyType, ownerID string) (*domain.Party, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+partyColumns+`
		FROM ledger.party
		WHERE type = $1 AND owner_id = $2`,
		partyType, ownerID,
	)

	return scanParty(row)
}

func scanParty(row pgx.Row) (*domain.Party, error) {
	var (
		party     domain.Party
		details   []byte
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&party.ID, &party.Type, &party.OwnerID, &details, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartyNotFound
		}

		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &party.Details); err != nil {
			return nil, err
		}
	}
	party.CreatedAt = createdAt.Time

	return &party, nil
}
