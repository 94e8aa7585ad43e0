package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	SuggestedAmountB string `json:"suggestedAmountB,omitempty"`
	DeviationBps     uint64 `json:"deviationBps,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeDomainError maps domain errors onto HTTP statuses. A ratio
// mismatch carries the price-implied suggestion so the client can show
// it instead of a bare failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var mismatch *entities.RatioMismatchError
	if errors.As(err, &mismatch) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:            "ratio_mismatch",
			Message:          mismatch.Error(),
			SuggestedAmountB: mismatch.SuggestedAmountB.String(),
			DeviationBps:     mismatch.DeviationBps,
		})
		return
	}

	switch {
	case errors.Is(err, entities.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, entities.ErrExcessiveInput):
		writeError(w, http.StatusUnprocessableEntity, "excessive_input", err.Error())
	case errors.Is(err, entities.ErrActionInProgress):
		writeError(w, http.StatusConflict, "action_in_progress", err.Error())
	case errors.Is(err, entities.ErrRegistryUnavailable):
		writeError(w, http.StatusServiceUnavailable, "registry_unavailable", err.Error())
	case errors.Is(err, entities.ErrApprovalFailed):
		writeError(w, http.StatusBadGateway, "approval_failed", err.Error())
	case errors.Is(err, entities.ErrSubmissionFailed):
		writeError(w, http.StatusBadGateway, "submission_failed", err.Error())
	case errors.Is(err, entities.ErrTransactionReverted):
		writeError(w, http.StatusBadGateway, "transaction_reverted", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
