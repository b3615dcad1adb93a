package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// TransactionUseCase is the only writer of ledger entries. It knows
// nothing about business semantics; it enforces the conservation law
// and external-reference idempotency.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	entryRepo   EntryRepository
	retrier     Retrier
	idGen       IDGenerator
	clock       Clock
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	entryRepo EntryRepository,
	retrier Retrier,
	idGen IDGenerator,
	clock Clock,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		entryRepo:   entryRepo,
		retrier:     retrier,
		idGen:       idGen,
		clock:       clock,
	}
}

// EntryInput is one (account, signed amount) pair of a transaction.
type EntryInput struct {
	AccountID string
	Amount    decimal.Decimal
}

// CreateTransactionInput represents input for creating a balanced
// transaction.
type CreateTransactionInput struct {
	Type              domain.TransactionType
	Description       string
	TransactionDate   time.Time
	ExternalReference *string
	Metadata          map[string]any
	Entries           []EntryInput
}

// CreateTransaction validates, then persists the transaction header
// and all entries as a single atomic unit. When ExternalReference is
// set and a transaction with that reference already exists, the call
// is a no-op returning the existing transaction; this is what makes
// reprocessing a bank statement or retrying a job safe.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	// A lone entry can never move value between accounts, even at
	// amount zero.
	if len(input.Entries) < 2 {
		return nil, domain.ErrEmptyTransaction
	}

	if input.ExternalReference != nil {
		existing, err := uc.txnRepo.GetByExternalReference(ctx, *input.ExternalReference)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	if err := uc.validateBalanced(ctx, input.Entries); err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC()
	txnDate := input.TransactionDate
	if txnDate.IsZero() {
		txnDate = now
	}

	txn := &domain.Transaction{
		ID:                uc.idGen.Generate(),
		Type:              input.Type,
		Description:       input.Description,
		Metadata:          input.Metadata,
		ExternalReference: input.ExternalReference,
		TransactionDate:   txnDate,
		CreatedAt:         now,
	}

	var result *domain.Transaction
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, err = uc.persist(ctx, txn, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// persist writes the header and all entries as one database
// transaction. Run under the retrier: a deadlock or serialization
// failure rolls back cleanly and the whole unit re-applies.
func (uc *TransactionUseCase) persist(ctx context.Context, txn *domain.Transaction, input CreateTransactionInput) (*domain.Transaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.txnRepo.CreateTx(ctx, tx, txn); err != nil {
		// Two concurrent callers with the same reference: the storage
		// uniqueness constraint is authoritative, the loser re-reads.
		if errors.Is(err, domain.ErrDuplicateExternalReference) && input.ExternalReference != nil {
			_ = tx.Rollback(ctx)
			return uc.txnRepo.GetByExternalReference(ctx, *input.ExternalReference)
		}
		return nil, err
	}

	for _, in := range input.Entries {
		entry := &domain.Entry{
			ID:            uc.idGen.Generate(),
			AccountID:     in.AccountID,
			TransactionID: txn.ID,
			Amount:        in.Amount,
			CreatedAt:     txn.CreatedAt,
		}
		if err := uc.entryRepo.CreateTx(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// GetByExternalReference retrieves a transaction by its external
// reference.
func (uc *TransactionUseCase) GetByExternalReference(ctx context.Context, externalReference string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByExternalReference(ctx, externalReference)
}

// HasTransaction reports whether a transaction with the external
// reference exists.
func (uc *TransactionUseCase) HasTransaction(ctx context.Context, externalReference string) (bool, error) {
	return uc.txnRepo.ExistsByExternalReference(ctx, externalReference)
}

// validateBalanced checks that for every asset type among the
// referenced accounts the entry amounts sum to exactly zero. Decimal
// equality, no rounding tolerance.
func (uc *TransactionUseCase) validateBalanced(ctx context.Context, entries []EntryInput) error {
	ids := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			ids = append(ids, e.AccountID)
		}
	}

	accounts, err := uc.accountRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(accounts) != len(ids) {
		return domain.ErrAccountNotFound
	}

	assetOf := make(map[string]domain.AssetType, len(accounts))
	for _, a := range accounts {
		assetOf[a.ID] = a.AssetType
	}

	sums := make(map[domain.AssetType]decimal.Decimal)
	for _, e := range entries {
		asset := assetOf[e.AccountID]
		sums[asset] = sums[asset].Add(e.Amount)
	}

	for asset, sum := range sums {
		if !sum.IsZero() {
			return fmt.Errorf("%w: %s sums to %s", domain.ErrUnbalancedTransaction, asset, sum)
		}
	}
	return nil
}
