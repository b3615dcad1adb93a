package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// PositionReportStore persists ingested custodian reports.
type PositionReportStore interface {
	Save(ctx context.Context, report *domain.PositionReport) error
}

// OperationsHandler exposes the back-office surface: statement-level
// bank operations, custodian report intake and reconciliation.
type OperationsHandler struct {
	operations     *usecase.SavingsFundLedger
	reconciliation *usecase.ReconciliationUseCase
	payments       *usecase.PaymentUseCase
	positions      PositionReportStore
}

// NewOperationsHandler creates a new OperationsHandler.
func NewOperationsHandler(
	operations *usecase.SavingsFundLedger,
	reconciliation *usecase.ReconciliationUseCase,
	payments *usecase.PaymentUseCase,
	positions PositionReportStore,
) *OperationsHandler {
	return &OperationsHandler{
		operations:     operations,
		reconciliation: reconciliation,
		payments:       payments,
		positions:      positions,
	}
}

// RecordBankFee handles POST /operations/bank-fee.
func (h *OperationsHandler) RecordBankFee(w http.ResponseWriter, r *http.Request) {
	h.bankOperation(w, r, h.operations.RecordBankFee)
}

// RecordInterest handles POST /operations/interest.
func (h *OperationsHandler) RecordInterest(w http.ResponseWriter, r *http.Request) {
	h.bankOperation(w, r, h.operations.RecordInterestReceived)
}

// RecordAdjustment handles POST /operations/adjustment. The amount is
// signed; a negative value corrects the cash position downwards.
func (h *OperationsHandler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	h.bankOperation(w, r, h.operations.RecordBankAdjustment)
}

func (h *OperationsHandler) bankOperation(
	w http.ResponseWriter,
	r *http.Request,
	record func(ctx context.Context, amount decimal.Decimal, ref string) (*domain.Transaction, error),
) {
	var req dto.BankOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "missing reference", "a statement reference is required")
		return
	}

	txn, err := record(r.Context(), amount, req.Reference)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// IngestPositionReport handles POST /positions.
func (h *OperationsHandler) IngestPositionReport(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	report, err := positionReportFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position report", err.Error())
		return
	}

	if err := h.positions.Save(r.Context(), report); err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"fund": report.Fund,
		"date": report.Date.Format("2006-01-02"),
	})
}

// Reconcile handles POST /reconciliation: a full statement run. The
// statement's credit lines feed payment intake, then the balances are
// reconciled. A mismatch is reported in the response body with status
// 200; the ledger is never adjusted.
func (h *OperationsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	statement, err := statementFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid statement", err.Error())
		return
	}

	registered, err := h.payments.IngestStatement(r.Context(), statement)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	discrepancies, err := h.reconciliation.Reconcile(r.Context(), statement)
	if err != nil && !errors.Is(err, domain.ErrReconciliationMismatch) {
		mapDomainError(w, err)
		return
	}

	resp := dto.ReconcileResponse{
		Matched:            len(discrepancies) == 0,
		RegisteredPayments: len(registered),
	}
	for _, d := range discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, dto.DiscrepancyResponse{
			AccountIBAN:   d.AccountIBAN,
			LedgerAccount: d.LedgerAccount,
			At:            d.At,
			BankBalance:   d.BankBalance.String(),
			LedgerBalance: d.LedgerBalance.String(),
			Difference:    d.Difference.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func positionReportFromRequest(req dto.PositionReportRequest) (*domain.PositionReport, error) {
	const day = "2006-01-02"
	date, err := time.Parse(day, req.Date)
	if err != nil {
		return nil, err
	}
	priceDate := date
	if req.PriceDate != "" {
		priceDate, err = time.Parse(day, req.PriceDate)
		if err != nil {
			return nil, err
		}
	}
	units, err := decimal.NewFromString(req.UnitsOutstanding)
	if err != nil {
		return nil, err
	}

	report := &domain.PositionReport{
		Fund:             req.Fund,
		Date:             date,
		PriceDate:        priceDate,
		UnitsOutstanding: units,
	}
	for _, line := range req.Positions {
		quantity, err := decimal.NewFromString(line.Quantity)
		if err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(line.MarketValue)
		if err != nil {
			return nil, err
		}
		report.Positions = append(report.Positions, domain.Position{
			ISIN:        line.ISIN,
			Name:        line.Name,
			Quantity:    quantity,
			MarketValue: value,
		})
	}
	return report, nil
}

func statementFromRequest(req dto.ReconcileRequest) (*domain.Statement, error) {
	statement := &domain.Statement{AccountIBAN: req.AccountIBAN}
	for _, b := range req.Balances {
		amount, err := decimal.NewFromString(b.Amount)
		if err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339, b.At)
		if err != nil {
			return nil, err
		}
		statement.Balances = append(statement.Balances, domain.StatementBalance{
			Type:   domain.StatementBalanceType(b.Type),
			Amount: amount,
			At:     at,
		})
	}
	for _, e := range req.Entries {
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return nil, err
		}
		bookedAt, err := time.Parse(time.RFC3339, e.BookedAt)
		if err != nil {
			return nil, err
		}
		statement.Entries = append(statement.Entries, domain.StatementEntry{
			ExternalID:         e.ExternalID,
			Amount:             amount,
			Currency:           e.Currency,
			Direction:          domain.StatementDirection(e.Direction),
			CounterpartyIBAN:   e.CounterpartyIBAN,
			CounterpartyIDCode: e.CounterpartyIDCode,
			CounterpartyName:   e.CounterpartyName,
			Description:        e.Description,
			BookedAt:           bookedAt,
		})
	}
	return statement, nil
}
