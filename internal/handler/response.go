package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"comanda-backend/internal/domain"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: "",
			Data:    payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

// writeDomainError maps domain errors onto HTTP statuses. Input problems are
// 400, missing entities 404, ownership 403, state machine refusals 409 and
// reconciliation failures 422. Anything unmapped is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation  *domain.ValidationError
		notFound    *domain.NotFoundError
		permission  *domain.PermissionError
		transition  *domain.InvalidTransitionError
		terminal    *domain.TerminalStateError
		capacity    *domain.CapacityExceededError
		mismatch    *domain.AmountMismatchError
		badMethod   *domain.InvalidPaymentMethodError
		unavailable *domain.ProductUnavailableError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &capacity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &permission):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &transition), errors.As(err, &terminal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSettlementInFlight),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrStatusConflict),
		errors.Is(err, domain.ErrTableNotOccupied),
		errors.Is(err, domain.ErrUnsettledOrders):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &mismatch), errors.As(err, &badMethod),
		errors.As(err, &unavailable),
		errors.Is(err, domain.ErrNoUnsettledOrders):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
