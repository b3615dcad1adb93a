package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

func TestTransactionUseCase_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty transaction", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.transactions.CreateTransaction(ctx, usecase.CreateTransactionInput{})
		if !errors.Is(err, domain.ErrEmptyTransaction) {
			t.Fatalf("expected ErrEmptyTransaction, got %v", err)
		}
	})

	t.Run("rejects single entry", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
		if err != nil {
			t.Fatal(err)
		}

		// A lone zero entry sums to zero but moves nothing.
		_, err = f.transactions.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type: domain.TransactionTypeTransfer,
			Entries: []usecase.EntryInput{
				{AccountID: a.ID, Amount: mustDecimal(t, "0")},
			},
		})
		if !errors.Is(err, domain.ErrEmptyTransaction) {
			t.Fatalf("expected ErrEmptyTransaction, got %v", err)
		}
	})

	t.Run("rejects unbalanced entries", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
		if err != nil {
			t.Fatal(err)
		}
		b, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemTradeReceivables)
		if err != nil {
			t.Fatal(err)
		}

		_, err = f.transactions.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type: domain.TransactionTypeTransfer,
			Entries: []usecase.EntryInput{
				{AccountID: a.ID, Amount: mustDecimal(t, "10.00")},
				{AccountID: b.ID, Amount: mustDecimal(t, "5.00")},
			},
		})
		if !errors.Is(err, domain.ErrUnbalancedTransaction) {
			t.Fatalf("expected ErrUnbalancedTransaction, got %v", err)
		}

		// Nothing may have been written.
		balance, err := f.ledger.Balance(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !balance.IsZero() {
			t.Errorf("balance = %s after rejected transaction, want 0", balance)
		}
	})

	t.Run("balances per asset type", func(t *testing.T) {
		f := newFixture(t)
		cash, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
		if err != nil {
			t.Fatal(err)
		}
		units, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemFundUnitsOutstanding)
		if err != nil {
			t.Fatal(err)
		}

		// Zero-sum EUR next to a non-zero FUND_UNIT leg must fail even
		// though the grand total happens to be zero.
		_, err = f.transactions.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type: domain.TransactionTypeTransfer,
			Entries: []usecase.EntryInput{
				{AccountID: cash.ID, Amount: mustDecimal(t, "10.00")},
				{AccountID: units.ID, Amount: mustDecimal(t, "-10.00")},
			},
		})
		if !errors.Is(err, domain.ErrUnbalancedTransaction) {
			t.Fatalf("expected ErrUnbalancedTransaction, got %v", err)
		}
	})

	t.Run("external reference is idempotent", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
		if err != nil {
			t.Fatal(err)
		}
		b, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemBankFees)
		if err != nil {
			t.Fatal(err)
		}

		ref := "stmt-2025-03-10-row-4"
		input := usecase.CreateTransactionInput{
			Type:              domain.TransactionTypeTransfer,
			ExternalReference: &ref,
			Entries: []usecase.EntryInput{
				{AccountID: a.ID, Amount: mustDecimal(t, "-2.50")},
				{AccountID: b.ID, Amount: mustDecimal(t, "2.50")},
			},
		}

		first, err := f.transactions.CreateTransaction(ctx, input)
		if err != nil {
			t.Fatalf("first call: %v", err)
		}
		second, err := f.transactions.CreateTransaction(ctx, input)
		if err != nil {
			t.Fatalf("second call: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("second call created a new transaction: %s vs %s", first.ID, second.ID)
		}

		balance, err := f.ledger.Balance(ctx, b.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !balance.Equal(mustDecimal(t, "2.50")) {
			t.Errorf("balance = %s, want 2.50 (double-posted?)", balance)
		}
	})

	t.Run("concurrent duplicate resolved by re-read", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
		if err != nil {
			t.Fatal(err)
		}
		b, err := f.ledger.FindOrCreateSystemAccount(ctx, domain.SystemBankFees)
		if err != nil {
			t.Fatal(err)
		}

		ref := "stmt-race"
		stored := &domain.Transaction{ID: "winner", ExternalReference: &ref}

		// Simulate losing the insert race: the pre-check misses, the
		// insert hits the constraint, the loser must return the row the
		// winner stored.
		calls := 0
		f.txnRepo.GetByExternalReferenceFunc = func(ctx context.Context, r string) (*domain.Transaction, error) {
			calls++
			if calls == 1 {
				return nil, domain.ErrTransactionNotFound
			}
			return stored, nil
		}
		f.txnRepo.CreateTxFunc = func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
			return domain.ErrDuplicateExternalReference
		}

		got, err := f.transactions.CreateTransaction(ctx, usecase.CreateTransactionInput{
			Type:              domain.TransactionTypeTransfer,
			ExternalReference: &ref,
			Entries: []usecase.EntryInput{
				{AccountID: a.ID, Amount: mustDecimal(t, "-1.00")},
				{AccountID: b.ID, Amount: mustDecimal(t, "1.00")},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "winner" {
			t.Errorf("got transaction %s, want the stored winner", got.ID)
		}
	})
}
