package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/handlers/render"
	"github.com/nkiryanov/paysms/internal/logger"
)

// Errors a client can act upon, in match order
var clientErrors = []struct {
	err  error
	code int
}{
	{apperrors.ErrUserNotFound, http.StatusNotFound},
	{apperrors.ErrDepositNotFound, http.StatusNotFound},
	{apperrors.ErrClaimNotFound, http.StatusNotFound},
	{apperrors.ErrUserAlreadyExists, http.StatusConflict},
	{apperrors.ErrTxIDCollision, http.StatusConflict},
	{apperrors.ErrClaimNotOwned, http.StatusForbidden},
	{apperrors.ErrPhoneInvalid, http.StatusUnprocessableEntity},
	{apperrors.ErrAmountOutOfRange, http.StatusUnprocessableEntity},
	{apperrors.ErrUnknownCurrency, http.StatusUnprocessableEntity},
	{apperrors.ErrNoOpenDeposit, http.StatusUnprocessableEntity},
	{apperrors.ErrLockTimeout, http.StatusServiceUnavailable},
}

// renderError maps service errors to responses, anything unknown is logged and hidden
func renderError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			render.ServiceError(w, ce.err.Error(), ce.code)
			return
		}
	}

	l.Error("request failed", "method", r.Method, "uri", r.RequestURI, "error", err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		render.FieldErrors(w, map[string]string{"user_id": "Invalid UUID"})
		return uuid.Nil, false
	}
	return userID, true
}
