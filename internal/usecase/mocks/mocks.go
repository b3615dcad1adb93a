// Package mocks provides in-memory implementations of the usecase
// interfaces. Every mock applies a Func field override when set and
// falls back to simple stateful behavior otherwise, so tests can run
// whole flows against an in-memory ledger and still force individual
// failures.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// MockPartyRepository is an in-memory PartyRepository.
type MockPartyRepository struct {
	mu      sync.RWMutex
	parties map[string]*domain.Party

	CreateFunc       func(ctx context.Context, party *domain.Party) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Party, error)
	GetByOwnerIDFunc func(ctx context.Context, partyType domain.PartyType, ownerID string) (*domain.Party, error)
}

func NewMockPartyRepository() *MockPartyRepository {
	return &MockPartyRepository{parties: make(map[string]*domain.Party)}
}

func (m *MockPartyRepository) Create(ctx context.Context, party *domain.Party) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, party)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parties {
		if p.Type == party.Type && p.OwnerID == party.OwnerID {
			return domain.ErrAlreadyExists
		}
	}
	m.parties[party.ID] = party
	return nil
}

func (m *MockPartyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.parties[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPartyNotFound
}

func (m *MockPartyRepository) GetByOwnerID(ctx context.Context, partyType domain.PartyType, ownerID string) (*domain.Party, error) {
	if m.GetByOwnerIDFunc != nil {
		return m.GetByOwnerIDFunc(ctx, partyType, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.parties {
		if p.Type == partyType && p.OwnerID == ownerID {
			return p, nil
		}
	}
	return nil, domain.ErrPartyNotFound
}

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsFunc         func(ctx context.Context, ids []string) ([]*domain.Account, error)
	GetUserAccountFunc   func(ctx context.Context, partyID string, kind domain.UserAccountKind) (*domain.Account, error)
	GetSystemAccountFunc func(ctx context.Context, name domain.SystemAccountName) (*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Purpose != account.Purpose || a.Name != account.Name {
			continue
		}
		if a.Purpose == domain.PurposeSystemAccount {
			return domain.ErrAlreadyExists
		}
		if a.PartyID != nil && account.PartyID != nil && *a.PartyID == *account.PartyID {
			return domain.ErrAlreadyExists
		}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) GetUserAccount(ctx context.Context, partyID string, kind domain.UserAccountKind) (*domain.Account, error) {
	if m.GetUserAccountFunc != nil {
		return m.GetUserAccountFunc(ctx, partyID, kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Purpose == domain.PurposeUserAccount && a.PartyID != nil && *a.PartyID == partyID && a.Name == string(kind) {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetSystemAccount(ctx context.Context, name domain.SystemAccountName) (*domain.Account, error) {
	if m.GetSystemAccountFunc != nil {
		return m.GetSystemAccountFunc(ctx, name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.Purpose == domain.PurposeSystemAccount && a.Name == string(name) {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// MockEntryRepository is an in-memory EntryRepository. It shares the
// account map of a MockAccountRepository for the by-name aggregate.
type MockEntryRepository struct {
	mu       sync.RWMutex
	entries  []*domain.Entry
	accounts *MockAccountRepository

	CreateTxFunc                func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	ListByAccountFunc           func(ctx context.Context, accountID string) ([]*domain.Entry, error)
	BalanceFunc                 func(ctx context.Context, accountID string) (decimal.Decimal, error)
	BalanceAsOfFunc             func(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	SumBalanceByAccountNameFunc func(ctx context.Context, name string, asset domain.AssetType) (decimal.Decimal, error)
}

func NewMockEntryRepository(accounts *MockAccountRepository) *MockEntryRepository {
	return &MockEntryRepository{accounts: accounts}
}

func (m *MockEntryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Entry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (m *MockEntryRepository) BalanceAsOf(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	if m.BalanceAsOfFunc != nil {
		return m.BalanceAsOfFunc(ctx, accountID, at)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.AccountID == accountID && !e.CreatedAt.After(at) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (m *MockEntryRepository) SumBalanceByAccountName(ctx context.Context, name string, asset domain.AssetType) (decimal.Decimal, error) {
	if m.SumBalanceByAccountNameFunc != nil {
		return m.SumBalanceByAccountNameFunc(ctx, name, asset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		account, err := m.accounts.GetByID(ctx, e.AccountID)
		if err != nil {
			continue
		}
		if account.Purpose == domain.PurposeUserAccount && account.Name == name && account.AssetType == asset {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	byReference  map[string]*domain.Transaction

	CreateTxFunc                  func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc                   func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByExternalReferenceFunc    func(ctx context.Context, ref string) (*domain.Transaction, error)
	ExistsByExternalReferenceFunc func(ctx context.Context, ref string) (bool, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
		byReference:  make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) CreateTx(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn.ExternalReference != nil {
		if _, ok := m.byReference[*txn.ExternalReference]; ok {
			return domain.ErrDuplicateExternalReference
		}
		m.byReference[*txn.ExternalReference] = txn
	}
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	if m.GetByExternalReferenceFunc != nil {
		return m.GetByExternalReferenceFunc(ctx, ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.byReference[ref]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ExistsByExternalReference(ctx context.Context, ref string) (bool, error) {
	if m.ExistsByExternalReferenceFunc != nil {
		return m.ExistsByExternalReferenceFunc(ctx, ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byReference[ref]
	return ok, nil
}

// MockPaymentRepository is an in-memory PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateFunc           func(ctx context.Context, payment *domain.Payment) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error)
	GetByExternalIDFunc  func(ctx context.Context, externalID string) (*domain.Payment, error)
	FindMatchFunc        func(ctx context.Context, description string, amount decimal.Decimal, remitterIBAN string, statuses []domain.PaymentStatus, since time.Time) (*domain.Payment, error)
	UpdateTxFunc         func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
	ListByStatusFunc     func(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	ListCancelledFunc    func(ctx context.Context, statuses []domain.PaymentStatus) ([]*domain.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *payment
	m.payments[payment.ID] = &clone
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockPaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Payment, error) {
	if m.GetByExternalIDFunc != nil {
		return m.GetByExternalIDFunc(ctx, externalID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ExternalID != nil && *p.ExternalID == externalID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) FindMatch(ctx context.Context, description string, amount decimal.Decimal, remitterIBAN string, statuses []domain.PaymentStatus, since time.Time) (*domain.Payment, error) {
	if m.FindMatchFunc != nil {
		return m.FindMatchFunc(ctx, description, amount, remitterIBAN, statuses, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.Description != description || !p.Amount.Equal(amount) || p.RemitterIBAN != remitterIBAN {
			continue
		}
		if p.CreatedAt.Before(since) {
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				clone := *p
				return &clone, nil
			}
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.UpdateTxFunc != nil {
		return m.UpdateTxFunc(ctx, tx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	clone := *payment
	m.payments[payment.ID] = &clone
	return nil
}

func (m *MockPaymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range m.payments {
		if p.Status == status {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *MockPaymentRepository) ListCancelled(ctx context.Context, statuses []domain.PaymentStatus) ([]*domain.Payment, error) {
	if m.ListCancelledFunc != nil {
		return m.ListCancelledFunc(ctx, statuses)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range m.payments {
		if p.CancelledAt == nil {
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				clone := *p
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

// MockRedemptionRepository is an in-memory RedemptionRepository.
type MockRedemptionRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.RedemptionRequest

	CreateFunc           func(ctx context.Context, request *domain.RedemptionRequest) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.RedemptionRequest, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.RedemptionRequest, error)
	UpdateTxFunc         func(ctx context.Context, tx usecase.Transaction, request *domain.RedemptionRequest) error
	ListByStatusFunc     func(ctx context.Context, status domain.RedemptionStatus) ([]*domain.RedemptionRequest, error)
}

func NewMockRedemptionRepository() *MockRedemptionRepository {
	return &MockRedemptionRepository{requests: make(map[string]*domain.RedemptionRequest)}
}

func (m *MockRedemptionRepository) Create(ctx context.Context, request *domain.RedemptionRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *request
	m.requests[request.ID] = &clone
	return nil
}

func (m *MockRedemptionRepository) GetByID(ctx context.Context, id string) (*domain.RedemptionRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, domain.ErrRedemptionNotFound
}

func (m *MockRedemptionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.RedemptionRequest, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockRedemptionRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, request *domain.RedemptionRequest) error {
	if m.UpdateTxFunc != nil {
		return m.UpdateTxFunc(ctx, tx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[request.ID]; !ok {
		return domain.ErrRedemptionNotFound
	}
	clone := *request
	m.requests[request.ID] = &clone
	return nil
}

func (m *MockRedemptionRepository) ListByStatus(ctx context.Context, status domain.RedemptionStatus) ([]*domain.RedemptionRequest, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.RedemptionRequest
	for _, r := range m.requests {
		if r.Status == status {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateTxFunc       func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc  func(ctx context.Context, id string, publishedAt time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) CreateTx(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

// Events returns every stored event.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockTransaction is a no-op database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager hands out no-op transactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockRetrier runs the operation once without retrying.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator generates sequential ids.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockClock returns a fixed instant.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock.
func (m *MockClock) Set(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// MockUserRegistry is a map-backed UserRegistry.
type MockUserRegistry struct {
	mu    sync.RWMutex
	users map[string]*domain.UserDetails

	GetByPersonalCodeFunc func(ctx context.Context, personalCode string) (*domain.UserDetails, error)
}

func NewMockUserRegistry() *MockUserRegistry {
	return &MockUserRegistry{users: make(map[string]*domain.UserDetails)}
}

// Add registers a member.
func (m *MockUserRegistry) Add(user *domain.UserDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.PersonalCode] = user
}

func (m *MockUserRegistry) GetByPersonalCode(ctx context.Context, personalCode string) (*domain.UserDetails, error) {
	if m.GetByPersonalCodeFunc != nil {
		return m.GetByPersonalCodeFunc(ctx, personalCode)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[personalCode]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// MockBankGateway records outbound transfers.
type MockBankGateway struct {
	mu        sync.Mutex
	transfers []domain.OutboundTransfer

	SendTransferFunc func(ctx context.Context, transfer domain.OutboundTransfer) error
}

func NewMockBankGateway() *MockBankGateway {
	return &MockBankGateway{}
}

func (m *MockBankGateway) SendTransfer(ctx context.Context, transfer domain.OutboundTransfer) error {
	if m.SendTransferFunc != nil {
		return m.SendTransferFunc(ctx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, transfer)
	return nil
}

// Transfers returns every sent transfer.
func (m *MockBankGateway) Transfers() []domain.OutboundTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutboundTransfer(nil), m.transfers...)
}

// MockPositionReportSource serves stored reports newest-first.
type MockPositionReportSource struct {
	mu      sync.RWMutex
	reports []*domain.PositionReport

	LatestReportFunc func(ctx context.Context, fund string, date time.Time) (*domain.PositionReport, error)
}

func NewMockPositionReportSource() *MockPositionReportSource {
	return &MockPositionReportSource{}
}

// Add stores a report.
func (m *MockPositionReportSource) Add(report *domain.PositionReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
}

func (m *MockPositionReportSource) LatestReport(ctx context.Context, fund string, date time.Time) (*domain.PositionReport, error) {
	if m.LatestReportFunc != nil {
		return m.LatestReportFunc(ctx, fund, date)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.PositionReport
	for _, r := range m.reports {
		if r.Fund != fund || r.Date.After(date) {
			continue
		}
		if latest == nil || r.Date.After(latest.Date) {
			latest = r
		}
	}
	if latest == nil {
		return nil, domain.ErrNoPositionReport
	}
	return latest, nil
}

// MockJobLocker always grants the lock.
type MockJobLocker struct {
	AcquireFunc func(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, name string) error
}

func NewMockJobLocker() *MockJobLocker {
	return &MockJobLocker{}
}

func (m *MockJobLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, name, ttl)
	}
	return true, nil
}

func (m *MockJobLocker) Release(ctx context.Context, name string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, name)
	}
	return nil
}
