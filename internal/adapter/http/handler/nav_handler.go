package handler

import (
	"net/http"
	"time"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/usecase"
)

// NavHandler exposes on-demand net asset value calculation.
type NavHandler struct {
	nav  *usecase.NavUseCase
	fund string
}

// NewNavHandler creates a new NavHandler. The fund name is used when
// the request does not name one.
func NewNavHandler(nav *usecase.NavUseCase, fund string) *NavHandler {
	return &NavHandler{nav: nav, fund: fund}
}

// Calculate handles GET /nav. Optional query parameters: fund, and
// date in YYYY-MM-DD form (defaults to today). The calculation is a
// pure read over the ledger; nothing is posted or published.
func (h *NavHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	fund := r.URL.Query().Get("fund")
	if fund == "" {
		fund = h.fund
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", "expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	result, err := h.nav.Calculate(r.Context(), fund, date)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NavFromDomain(result))
}
