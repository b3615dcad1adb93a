package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// LedgerHandler exposes the read-only ledger surface: accounts, their
// derived balances and entry streams, and posted transactions.
type LedgerHandler struct {
	ledger       *usecase.LedgerUseCase
	transactions *usecase.TransactionUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger *usecase.LedgerUseCase, transactions *usecase.TransactionUseCase) *LedgerHandler {
	return &LedgerHandler{
		ledger:       ledger,
		transactions: transactions,
	}
}

// GetAccount handles GET /accounts/{id}.
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.ledger.Account(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetBalance handles GET /accounts/{id}/balance. An optional as_of
// query parameter (RFC 3339) returns the balance as of that instant.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp := dto.BalanceResponse{AccountID: id}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of", "expected RFC 3339 timestamp")
			return
		}
		balance, err := h.ledger.BalanceAsOf(r.Context(), id, at)
		if err != nil {
			mapDomainError(w, err)
			return
		}
		resp.Balance = balance.String()
		resp.AsOf = at.Format(time.RFC3339)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	balance, err := h.ledger.Balance(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	resp.Balance = balance.String()
	writeJSON(w, http.StatusOK, resp)
}

// ListEntries handles GET /accounts/{id}/entries.
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := h.ledger.ListEntries(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// GetTransaction handles GET /transactions/{id}.
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txn, err := h.transactions.GetTransaction(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
