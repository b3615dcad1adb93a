package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// LedgerUseCase implements the ledger store contract: lazy
// find-or-create of parties and accounts, and derived balances.
type LedgerUseCase struct {
	partyRepo   PartyRepository
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
	clock       Clock
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	partyRepo PartyRepository,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	clock Clock,
) *LedgerUseCase {
	return &LedgerUseCase{
		partyRepo:   partyRepo,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		clock:       clock,
	}
}

// FindOrCreateParty returns the party for (type, owner), creating it
// on first ledger interaction. Attempt insert, on uniqueness violation
// re-read: the constraint is the arbiter if two processes race.
func (uc *LedgerUseCase) FindOrCreateParty(ctx context.Context, partyType domain.PartyType, ownerID string, details map[string]any) (*domain.Party, error) {
	party, err := uc.partyRepo.GetByOwnerID(ctx, partyType, ownerID)
	if err == nil {
		return party, nil
	}
	if !errors.Is(err, domain.ErrPartyNotFound) {
		return nil, err
	}

	party = &domain.Party{
		ID:        uc.idGen.Generate(),
		Type:      partyType,
		OwnerID:   ownerID,
		Details:   details,
		CreatedAt: uc.clock.Now().UTC(),
	}
	err = uc.partyRepo.Create(ctx, party)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return uc.partyRepo.GetByOwnerID(ctx, partyType, ownerID)
	}
	if err != nil {
		return nil, err
	}
	return party, nil
}

// FindOrCreateUserAccount returns the party's account of the given
// kind, creating it at most once on first use.
func (uc *LedgerUseCase) FindOrCreateUserAccount(ctx context.Context, partyID string, kind domain.UserAccountKind) (*domain.Account, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAccountKind, kind)
	}

	account, err := uc.accountRepo.GetUserAccount(ctx, partyID, kind)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	pid := partyID
	account = &domain.Account{
		ID:             uc.idGen.Generate(),
		PartyID:        &pid,
		Purpose:        domain.PurposeUserAccount,
		Name:           string(kind),
		AccountingType: kind.AccountingType(),
		AssetType:      kind.AssetType(),
		CreatedAt:      uc.clock.Now().UTC(),
	}
	err = uc.accountRepo.Create(ctx, account)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return uc.accountRepo.GetUserAccount(ctx, partyID, kind)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// FindOrCreateSystemAccount returns the fund-level account with the
// given name, creating it at most once on first use.
func (uc *LedgerUseCase) FindOrCreateSystemAccount(ctx context.Context, name domain.SystemAccountName) (*domain.Account, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAccountKind, name)
	}

	account, err := uc.accountRepo.GetSystemAccount(ctx, name)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account = &domain.Account{
		ID:             uc.idGen.Generate(),
		Purpose:        domain.PurposeSystemAccount,
		Name:           string(name),
		AccountingType: name.AccountingType(),
		AssetType:      name.AssetType(),
		CreatedAt:      uc.clock.Now().UTC(),
	}
	err = uc.accountRepo.Create(ctx, account)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return uc.accountRepo.GetSystemAccount(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Party returns a party by id.
func (uc *LedgerUseCase) Party(ctx context.Context, id string) (*domain.Party, error) {
	return uc.partyRepo.GetByID(ctx, id)
}

// Account returns an account by id.
func (uc *LedgerUseCase) Account(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListEntries fetches the account's entries ordered by creation time.
// Always an explicit, eagerly resolved query, never a navigation of an
// object graph.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	return uc.entryRepo.ListByAccount(ctx, accountID)
}

// Balance returns the signed sum of the account's entries.
func (uc *LedgerUseCase) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return uc.entryRepo.Balance(ctx, accountID)
}

// BalanceAsOf returns the sum of entries created at or before the
// instant, used for reconciliation against a statement's closing time.
func (uc *LedgerUseCase) BalanceAsOf(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	return uc.entryRepo.BalanceAsOf(ctx, accountID, at)
}

// SystemBalance returns the balance of a system account, zero when the
// account has not been created yet.
func (uc *LedgerUseCase) SystemBalance(ctx context.Context, name domain.SystemAccountName) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetSystemAccount(ctx, name)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return uc.entryRepo.Balance(ctx, account.ID)
}

// SystemBalanceAsOf returns a system account's balance at an instant,
// zero when the account has not been created yet.
func (uc *LedgerUseCase) SystemBalanceAsOf(ctx context.Context, name domain.SystemAccountName, at time.Time) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetSystemAccount(ctx, name)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return uc.entryRepo.BalanceAsOf(ctx, account.ID, at)
}

// SumUserBalances aggregates the balances of every user account of one
// kind, e.g. all pending subscription reserves.
func (uc *LedgerUseCase) SumUserBalances(ctx context.Context, kind domain.UserAccountKind) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrUnknownAccountKind, kind)
	}
	return uc.entryRepo.SumBalanceByAccountName(ctx, string(kind), kind.AssetType())
}
