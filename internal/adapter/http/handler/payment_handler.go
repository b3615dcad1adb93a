package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// PaymentHandler exposes the payment intake surface.
type PaymentHandler struct {
	payments *usecase.PaymentUseCase
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateIntent handles POST /payments. The member announces a payment
// through the app before the money has moved.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	payment, err := paymentFromRequest(req.Amount, req.Currency, req.Description,
		req.RemitterIBAN, req.RemitterIDCode, req.RemitterName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	created, err := h.payments.CreateIntent(r.Context(), payment)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(created))
}

// RegisterIncoming handles POST /payments/incoming. One observation of
// an incoming transfer, from a statement line or a processor
// notification; a repeated observation merges into the existing
// payment instead of creating a duplicate.
func (h *PaymentHandler) RegisterIncoming(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterIncomingPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	payment, err := paymentFromRequest(req.Amount, req.Currency, req.Description,
		req.RemitterIBAN, req.RemitterIDCode, req.RemitterName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}
	payment.ExternalID = req.ExternalID
	if req.ReceivedAt != "" {
		at, err := time.Parse(time.RFC3339, req.ReceivedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid received_at", "expected RFC 3339 timestamp")
			return
		}
		payment.ReceivedBefore = at
	}

	registered, err := h.payments.RegisterIncoming(r.Context(), payment)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(registered))
}

// GetPayment handles GET /payments/{id}.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Freeze handles POST /payments/{id}/freeze. Back-office holds a
// suspicious payment out of the automated pipeline.
func (h *PaymentHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payment, err := h.payments.Freeze(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Cancel handles POST /payments/{id}/cancel. Cancellation is a flag;
// the cancellation job decides later whether the deadline was met.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payment, err := h.payments.Cancel(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

func paymentFromRequest(amount, currency, description, remitterIBAN, remitterIDCode, remitterName string) (*domain.Payment, error) {
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	return &domain.Payment{
		Amount:         parsed,
		Currency:       currency,
		Description:    description,
		RemitterIBAN:   remitterIBAN,
		RemitterIDCode: remitterIDCode,
		RemitterName:   remitterName,
	}, nil
}
