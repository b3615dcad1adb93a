package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TulevaEE/onboarding-service-sub001/internal/adapter/http/dto"
	"github.com/TulevaEE/onboarding-service-sub001/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError writes a domain error with its HTTP status code.
func mapDomainError(w http.ResponseWriter, err error) {
	writeError(w, domainErrorStatus(err), err.Error(), "")
}

func domainErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrPartyNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrRedemptionNotFound),
		errors.Is(err, domain.ErrNoPositionReport):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyTransaction),
		errors.Is(err, domain.ErrUnbalancedTransaction),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownAccountKind):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIllegalStatusTransition),
		errors.Is(err, domain.ErrPaymentMergeConflict),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
