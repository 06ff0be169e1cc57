package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/handlers/render"
	"github.com/nkiryanov/paysms/internal/logger"
)

type claimRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	TxID   string    `json:"tx_id" validate:"required,min=4"`
}

func handleListClaims(rs reconcileService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		onlyUnclaimed := true
		if v := r.URL.Query().Get("unclaimed"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				render.FieldErrors(w, map[string]string{"unclaimed": "Invalid boolean"})
				return
			}
			onlyUnclaimed = parsed
		}

		claims, err := rs.ListClaims(r.Context(), onlyUnclaimed)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		resp := make([]claimResponse, 0, len(claims))
		for _, c := range claims {
			resp = append(resp, newClaimResponse(c))
		}
		render.JSON(w, resp)
	}
}

func handleClaim(rs reconcileService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[claimRequest](w, r)
		if err != nil {
			return
		}

		outcome, err := rs.Claim(r.Context(), req.UserID, req.TxID)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, newOutcomeResponse(outcome))
	}
}
