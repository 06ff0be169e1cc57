package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/paysms/internal/handlers/render"
)

const healthTimeout = 2 * time.Second

func handleHealth(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			if err := p.Ping(ctx); err != nil {
				render.JSONWithStatus(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
				return
			}
		}
		render.JSON(w, map[string]string{"status": "ok"})
	}
}
