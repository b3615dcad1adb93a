package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// PartyRepository defines data access for ledger parties.
type PartyRepository interface {
	Create(ctx context.Context, party *domain.Party) error
	GetByID(ctx context.Context, id string) (*domain.Party, error)
	GetByOwnerID(ctx context.Context, partyType domain.PartyType, ownerID string) (*domain.Party, error)
}

// AccountRepository defines data access for ledger accounts.
// Create returns domain.ErrAlreadyExists on a key collision; the
// caller re-reads (canonical idempotent find-or-create).
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error)
	GetUserAccount(ctx context.Context, partyID string, kind domain.UserAccountKind) (*domain.Account, error)
	GetSystemAccount(ctx context.Context, name domain.SystemAccountName) (*domain.Account, error)
}

// EntryRepository defines read access to entries and derived balances.
// Entries are written only by TransactionRepository.Create as part of
// a transaction; no mutation is exposed here.
type EntryRepository interface {
	CreateTx(ctx context.Context, tx Transaction, entry *domain.Entry) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Entry, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	// SumBalanceByAccountName aggregates entry amounts over every user
	// account of one kind, e.g. all CASH_RESERVED accounts.
	SumBalanceByAccountName(ctx context.Context, name string, asset domain.AssetType) (decimal.Decimal, error)
}

// TransactionRepository defines data access for ledger transactions.
// CreateTx returns domain.ErrDuplicateExternalReference when the
// external-reference uniqueness constraint fires.
type TransactionRepository interface {
	CreateTx(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByExternalReference(ctx context.Context, ref string) (*domain.Transaction, error)
	ExistsByExternalReference(ctx context.Context, ref string) (bool, error)
}

// PaymentRepository defines data access for saving-fund payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Payment, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Payment, error)
	// FindMatch looks for a recent payment in the given statuses with
	// the same description, amount and remitter IBAN.
	FindMatch(ctx context.Context, description string, amount decimal.Decimal, remitterIBAN string, statuses []domain.PaymentStatus, since time.Time) (*domain.Payment, error)
	UpdateTx(ctx context.Context, tx Transaction, payment *domain.Payment) error
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	// ListCancelled lists user-cancelled, not yet returned payments.
	ListCancelled(ctx context.Context, statuses []domain.PaymentStatus) ([]*domain.Payment, error)
}

// RedemptionRepository defines data access for redemption requests.
type RedemptionRepository interface {
	Create(ctx context.Context, request *domain.RedemptionRequest) error
	GetByID(ctx context.Context, id string) (*domain.RedemptionRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.RedemptionRequest, error)
	UpdateTx(ctx context.Context, tx Transaction, request *domain.RedemptionRequest) error
	ListByStatus(ctx context.Context, status domain.RedemptionStatus) ([]*domain.RedemptionRequest, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	CreateTx(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles database transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation when the storage layer reports a
// transient failure, e.g. a deadlock or serialization conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time. Every time-dependent component
// takes a Clock instead of calling time.Now, so tests inject fixed
// instants without global state.
type Clock interface {
	Now() time.Time
}

// JobLocker serializes named scheduled jobs cluster-wide.
type JobLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// UserRegistry is the fund-onboarding collaborator consulted during
// payment verification.
type UserRegistry interface {
	GetByPersonalCode(ctx context.Context, personalCode string) (*domain.UserDetails, error)
}

// BankGateway issues outbound transfers for returns and payouts.
type BankGateway interface {
	SendTransfer(ctx context.Context, transfer domain.OutboundTransfer) error
}

// PositionReportSource supplies custodian position reports.
// LatestReport returns the newest report dated at or before date, or
// domain.ErrNoPositionReport.
type PositionReportSource interface {
	LatestReport(ctx context.Context, fund string, date time.Time) (*domain.PositionReport, error)
}
