package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase/mocks"
)

// fixture wires the whole use-case stack against in-memory mocks. A
// test reaches into the mock fields to seed state or force failures.
type fixture struct {
	partyRepo      *mocks.MockPartyRepository
	accountRepo    *mocks.MockAccountRepository
	entryRepo      *mocks.MockEntryRepository
	txnRepo        *mocks.MockTransactionRepository
	paymentRepo    *mocks.MockPaymentRepository
	redemptionRepo *mocks.MockRedemptionRepository
	outboxRepo     *mocks.MockOutboxRepository
	txManager      *mocks.MockTransactionManager
	idGen          *mocks.MockIDGenerator
	clock          *mocks.MockClock
	users          *mocks.MockUserRegistry
	bank           *mocks.MockBankGateway
	positions      *mocks.MockPositionReportSource

	ledger       *usecase.LedgerUseCase
	transactions *usecase.TransactionUseCase
	operations   *usecase.SavingsFundLedger
	nav          *usecase.NavUseCase
	payments     *usecase.PaymentUseCase
	redemptions  *usecase.RedemptionUseCase
	paymentJobs  *usecase.PaymentJobs
	redeemJobs   *usecase.RedemptionJobs
}

const testFund = "TULEVA_SAVINGS_FUND"

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		partyRepo:      mocks.NewMockPartyRepository(),
		accountRepo:    mocks.NewMockAccountRepository(),
		txnRepo:        mocks.NewMockTransactionRepository(),
		paymentRepo:    mocks.NewMockPaymentRepository(),
		redemptionRepo: mocks.NewMockRedemptionRepository(),
		outboxRepo:     mocks.NewMockOutboxRepository(),
		txManager:      mocks.NewMockTransactionManager(),
		idGen:          mocks.NewMockIDGenerator(),
		clock:          mocks.NewMockClock(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)),
		users:          mocks.NewMockUserRegistry(),
		bank:           mocks.NewMockBankGateway(),
		positions:      mocks.NewMockPositionReportSource(),
	}
	f.entryRepo = mocks.NewMockEntryRepository(f.accountRepo)

	logger := zerolog.Nop()

	f.ledger = usecase.NewLedgerUseCase(f.partyRepo, f.accountRepo, f.entryRepo, f.idGen, f.clock)
	f.transactions = usecase.NewTransactionUseCase(f.txManager, f.accountRepo, f.txnRepo, f.entryRepo, mocks.NewMockRetrier(), f.idGen, f.clock)
	f.operations = usecase.NewSavingsFundLedger(f.ledger, f.transactions)
	f.nav = usecase.NewNavUseCase(f.ledger, f.operations, f.positions, f.txManager, f.outboxRepo, f.idGen, f.clock)
	f.payments = usecase.NewPaymentUseCase(f.paymentRepo, f.txManager, f.idGen, f.clock, logger)
	f.redemptions = usecase.NewRedemptionUseCase(f.redemptionRepo, f.txManager, f.idGen, f.clock, logger)
	f.paymentJobs = usecase.NewPaymentJobs(f.payments, f.paymentRepo, f.ledger, f.operations, f.nav,
		f.users, f.bank, f.txManager, f.outboxRepo, f.idGen, f.clock, logger, testFund)
	f.redeemJobs = usecase.NewRedemptionJobs(f.redemptions, f.redemptionRepo, f.ledger, f.operations,
		f.transactions, f.nav, f.bank, f.txManager, f.outboxRepo, f.idGen, f.clock, logger, testFund)

	return f
}

// party creates a member party with its name detail set.
func (f *fixture) party(t *testing.T, personalCode, name string) *domain.Party {
	t.Helper()
	party, err := f.ledger.FindOrCreateParty(context.Background(), domain.PartyTypeUser, personalCode, map[string]any{"name": name})
	if err != nil {
		t.Fatalf("create party: %v", err)
	}
	return party
}

// userBalance reads a member account balance, zero when the account
// does not exist yet.
func (f *fixture) userBalance(t *testing.T, partyID string, kind domain.UserAccountKind) decimal.Decimal {
	t.Helper()
	account, err := f.accountRepo.GetUserAccount(context.Background(), partyID, kind)
	if err != nil {
		return decimal.Zero
	}
	balance, err := f.ledger.Balance(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

// systemBalance reads a system account balance.
func (f *fixture) systemBalance(t *testing.T, name domain.SystemAccountName) decimal.Decimal {
	t.Helper()
	balance, err := f.ledger.SystemBalance(context.Background(), name)
	if err != nil {
		t.Fatalf("system balance: %v", err)
	}
	return balance
}

// seedSystemBalance posts a balanced pair so the named EUR account
// carries the given balance. The counterweight goes to the revaluation
// income account, which no balance-sheet calculation reads.
func (f *fixture) seedSystemBalance(t *testing.T, name domain.SystemAccountName, amount decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	account, err := f.ledger.FindOrCreateSystemAccount(ctx, name)
	if err != nil {
		t.Fatalf("system account: %v", err)
	}
	counter, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemPositionRevaluation)
	if err != nil {
		t.Fatalf("counter account: %v", err)
	}
	_, err = f.transactions.CreateTransaction(ctx, usecase.CreateTransactionInput{
		Type:        domain.TransactionTypeAdjustment,
		Description: "test seed",
		Entries: []usecase.EntryInput{
			{AccountID: account.ID, Amount: amount},
			{AccountID: counter.ID, Amount: amount.Neg()},
		},
	})
	if err != nil {
		t.Fatalf("seed balance: %v", err)
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}
