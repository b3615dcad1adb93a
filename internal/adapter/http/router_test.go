package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http"
	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/handler"
	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase/mocks"
)

const (
	testFund = "TULEVA_SAVINGS_FUND"
	testIBAN = "EE909900123456789012"
)

// positionStore adapts the in-memory report source to the intake
// handler's store interface.
type positionStore struct {
	src *mocks.MockPositionReportSource
}

func (s positionStore) Save(ctx context.Context, report *domain.PositionReport) error {
	s.src.Add(report)
	return nil
}

type testAPI struct {
	router    http.Handler
	ledger    *usecase.LedgerUseCase
	positions *mocks.MockPositionReportSource
	clock     *mocks.MockClock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	partyRepo := mocks.NewMockPartyRepository()
	accountRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository(accountRepo)
	txnRepo := mocks.NewMockTransactionRepository()
	paymentRepo := mocks.NewMockPaymentRepository()
	redemptionRepo := mocks.NewMockRedemptionRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	txManager := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()
	clock := mocks.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	positions := mocks.NewMockPositionReportSource()
	logger := zerolog.Nop()

	ledgerUC := usecase.NewLedgerUseCase(partyRepo, accountRepo, entryRepo, idGen, clock)
	transactionUC := usecase.NewTransactionUseCase(txManager, accountRepo, txnRepo, entryRepo, mocks.NewMockRetrier(), idGen, clock)
	operations := usecase.NewSavingsFundLedger(ledgerUC, transactionUC)
	navUC := usecase.NewNavUseCase(ledgerUC, operations, positions, txManager, outboxRepo, idGen, clock)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, txManager, idGen, clock, logger)
	redemptionUC := usecase.NewRedemptionUseCase(redemptionRepo, txManager, idGen, clock, logger)
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerUC, txManager, outboxRepo, idGen, clock, logger,
		map[string]usecase.BankMirror{testIBAN: usecase.OperationalBankMirror()})

	router := apphttp.NewRouter(apphttp.RouterConfig{
		LedgerHandler:     handler.NewLedgerHandler(ledgerUC, transactionUC),
		PaymentHandler:    handler.NewPaymentHandler(paymentUC),
		RedemptionHandler: handler.NewRedemptionHandler(redemptionUC),
		NavHandler:        handler.NewNavHandler(navUC, testFund),
		OperationsHandler: handler.NewOperationsHandler(operations, reconciliationUC, paymentUC, positionStore{src: positions}),
		HealthHandler:     handler.NewHealthHandler(nil, nil),
	})

	return &testAPI{router: router, ledger: ledgerUC, positions: positions, clock: clock}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_PaymentIntake(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/payments", dto.CreatePaymentIntentRequest{
		Amount:       "100.00",
		Currency:     "EUR",
		Description:  "Kogumisfond 38806148523",
		RemitterIBAN: "EE471000001020145685",
		RemitterName: "Mari Maasikas",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dto.PaymentResponse](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, string(domain.PaymentStatusCreated), created.Status)

	rec = api.do(t, http.MethodGet, "/api/v1/payments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[dto.PaymentResponse](t, rec)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "100", fetched.Amount)

	externalID := "bank-1"
	rec = api.do(t, http.MethodPost, "/api/v1/payments/incoming", dto.RegisterIncomingPaymentRequest{
		Amount:       "100.00",
		Currency:     "EUR",
		Description:  "Kogumisfond 38806148523",
		RemitterIBAN: "EE471000001020145685",
		RemitterName: "Mari Maasikas",
		ExternalID:   &externalID,
		ReceivedAt:   "2025-03-10T09:30:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	registered := decode[dto.PaymentResponse](t, rec)
	// Merged into the announced intent, now confirmed.
	assert.Equal(t, created.ID, registered.ID)
	assert.Equal(t, string(domain.PaymentStatusReceived), registered.Status)

	rec = api.do(t, http.MethodPost, "/api/v1/payments/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decode[dto.PaymentResponse](t, rec)
	assert.NotNil(t, cancelled.CancelledAt)
}

func TestRouter_PaymentFreeze(t *testing.T) {
	api := newTestAPI(t)

	externalID := "bank-9"
	rec := api.do(t, http.MethodPost, "/api/v1/payments/incoming", dto.RegisterIncomingPaymentRequest{
		Amount:       "250.00",
		Currency:     "EUR",
		Description:  "Kogumisfond 38806148523",
		RemitterIBAN: "EE471000001020145685",
		RemitterName: "Mari Maasikas",
		ExternalID:   &externalID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	registered := decode[dto.PaymentResponse](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/payments/"+registered.ID+"/freeze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	frozen := decode[dto.PaymentResponse](t, rec)
	assert.Equal(t, string(domain.PaymentStatusFrozen), frozen.Status)

	// A frozen payment has no further transitions.
	rec = api.do(t, http.MethodPost, "/api/v1/payments/"+registered.ID+"/freeze", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_PaymentValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/payments", dto.CreatePaymentIntentRequest{Amount: "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/payments/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Redemptions(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/redemptions", dto.CreateRedemptionRequest{
		PartyID:         "party-1",
		Units:           "10.00000",
		BeneficiaryIBAN: "EE471000001020145685",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dto.RedemptionResponse](t, rec)
	assert.Equal(t, string(domain.RedemptionStatusCreated), created.Status)

	rec = api.do(t, http.MethodGet, "/api/v1/redemptions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/redemptions/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decode[dto.RedemptionResponse](t, rec)
	assert.Equal(t, string(domain.RedemptionStatusCancelled), cancelled.Status)

	rec = api.do(t, http.MethodPost, "/api/v1/redemptions", dto.CreateRedemptionRequest{
		PartyID: "party-1",
		Units:   "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Nav(t *testing.T) {
	api := newTestAPI(t)

	// No custodian report yet.
	rec := api.do(t, http.MethodGet, "/api/v1/nav?date=2025-03-10", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Ingest a report through the back-office surface, then read the NAV.
	rec = api.do(t, http.MethodPost, "/api/v1/positions", dto.PositionReportRequest{
		Fund: testFund,
		Date: "2025-03-10",
		Positions: []dto.PositionLineRequest{
			{ISIN: "IE00B4L5Y983", Name: "iShares Core MSCI World", Quantity: "100", MarketValue: "0.00"},
		},
		UnitsOutstanding: "0",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/nav?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nav := decode[dto.NavResponse](t, rec)
	assert.Equal(t, testFund, nav.Fund)
	assert.Equal(t, "0", nav.FinalNav)
	assert.Equal(t, "1", nav.NavPerUnit)

	rec = api.do(t, http.MethodGet, "/api/v1/nav?date=bad-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_BankOperations(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/operations/bank-fee", dto.BankOperationRequest{
		Amount:    "2.50",
		Reference: "stmt-2025-03-10-row-4",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	txn := decode[dto.TransactionResponse](t, rec)
	require.NotNil(t, txn.ExternalReference)
	assert.Equal(t, "stmt-2025-03-10-row-4", *txn.ExternalReference)

	// A statement reference is what makes re-posting safe; refuse
	// operations without one.
	rec = api.do(t, http.MethodPost, "/api/v1/operations/interest", dto.BankOperationRequest{Amount: "4.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/operations/adjustment", dto.BankOperationRequest{
		Amount:    "0",
		Reference: "stmt-zero",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Reconciliation(t *testing.T) {
	api := newTestAPI(t)

	// The ledger has no postings yet; the bank claims 100.00. The
	// statement's credit line still enters payment intake.
	rec := api.do(t, http.MethodPost, "/api/v1/reconciliation", dto.ReconcileRequest{
		AccountIBAN: testIBAN,
		Balances: []dto.StatementBalanceRequest{
			{Type: "CLOSING", Amount: "100.00", At: "2025-03-10T23:59:59Z"},
		},
		Entries: []dto.StatementEntryRequest{
			{
				ExternalID:       "row-1",
				Amount:           "100.00",
				Currency:         "EUR",
				Direction:        "CREDIT",
				CounterpartyIBAN: "EE471000001020145685",
				CounterpartyName: "Mari Maasikas",
				Description:      "Kogumisfond 38806148523",
				BookedAt:         "2025-03-10T09:30:00Z",
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[dto.ReconcileResponse](t, rec)
	assert.False(t, result.Matched)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "100", result.Discrepancies[0].Difference)
	assert.Equal(t, 1, result.RegisteredPayments)

	// An empty statement against an empty ledger reconciles.
	rec = api.do(t, http.MethodPost, "/api/v1/reconciliation", dto.ReconcileRequest{
		AccountIBAN: testIBAN,
		Balances: []dto.StatementBalanceRequest{
			{Type: "CLOSING", Amount: "0", At: "2025-03-10T23:59:59Z"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result = decode[dto.ReconcileResponse](t, rec)
	assert.True(t, result.Matched)
}

func TestRouter_AccountSurface(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	account, err := api.ledger.FindOrCreateSystemAccount(ctx, domain.SystemCashPosition)
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/api/v1/accounts/"+account.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[dto.AccountResponse](t, rec)
	assert.Equal(t, string(domain.SystemCashPosition), fetched.Name)

	rec = api.do(t, http.MethodGet, "/api/v1/accounts/"+account.ID+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decode[dto.BalanceResponse](t, rec)
	assert.Equal(t, "0", balance.Balance)

	rec = api.do(t, http.MethodGet, "/api/v1/accounts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
