package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/handlers/render"
	"github.com/nkiryanov/paysms/internal/logger"
)

type depositRequest struct {
	UserID   uuid.UUID       `json:"user_id" validate:"required"`
	Currency string          `json:"currency" validate:"required,currency"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
}

func handleRequestDeposit(ds depositService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[depositRequest](w, r)
		if err != nil {
			return
		}

		deposit, err := ds.Request(r.Context(), req.UserID, req.Currency, req.Amount)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSONWithStatus(w, newDepositResponse(deposit), http.StatusCreated)
	}
}

func handleListDeposits(ds depositService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}

		deposits, err := ds.List(r.Context(), userID)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		resp := make([]depositResponse, 0, len(deposits))
		for _, d := range deposits {
			resp = append(resp, newDepositResponse(d))
		}
		render.JSON(w, resp)
	}
}
