package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/paysms/internal/handlers/render"
)

const ForwarderTokenHeader = "X-Forwarder-Token"

type deviceKey struct{}

type tokenParser interface {
	// Parse returns the device name the token was issued for
	Parse(token string) (string, error)
}

// ForwarderAuth lets through requests carrying a valid forwarder token
// Bearer authorization and the X-Forwarder-Token header are both accepted
func ForwarderAuth(tp tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device, err := tp.Parse(tokenFromRequest(r))
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := NewContextWithDevice(r.Context(), device)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(ForwarderTokenHeader); token != "" {
		return token
	}

	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func NewContextWithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

func DeviceFromContext(ctx context.Context) (string, bool) {
	device, ok := ctx.Value(deviceKey{}).(string)
	return device, ok
}
