package handlers

import (
	"net/http"

	"github.com/nkiryanov/paysms/internal/handlers/render"
	"github.com/nkiryanov/paysms/internal/logger"
)

type registerUserRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

func handleRegisterUser(us userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[registerUserRequest](w, r)
		if err != nil {
			return
		}

		user, err := us.Register(r.Context(), req.Phone)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSONWithStatus(w, newUserResponse(user), http.StatusCreated)
	}
}

func handleGetUser(us userService, l logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDParam(w, r)
		if !ok {
			return
		}

		user, err := us.Get(r.Context(), userID)
		if err != nil {
			renderError(w, r, err, l)
			return
		}

		render.JSON(w, newUserResponse(user))
	}
}
