package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// RedemptionHandler exposes the redemption request surface.
type RedemptionHandler struct {
	redemptions *usecase.RedemptionUseCase
}

// NewRedemptionHandler creates a new RedemptionHandler.
func NewRedemptionHandler(redemptions *usecase.RedemptionUseCase) *RedemptionHandler {
	return &RedemptionHandler{redemptions: redemptions}
}

// Create handles POST /redemptions.
func (h *RedemptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRedemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	units, err := decimal.NewFromString(req.Units)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid units", err.Error())
		return
	}

	request, err := h.redemptions.CreateRequest(r.Context(), req.PartyID, units, req.BeneficiaryIBAN)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RedemptionFromDomain(request))
}

// Get handles GET /redemptions/{id}.
func (h *RedemptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	request, err := h.redemptions.GetRequest(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RedemptionFromDomain(request))
}

// Cancel handles POST /redemptions/{id}/cancel. A request that has not
// been reserved yet is cancelled immediately; a reserved one is
// flagged and released by the cancellation job.
func (h *RedemptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	request, err := h.redemptions.Cancel(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RedemptionFromDomain(request))
}
