package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/handlers/middleware"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/service/reconcile"
)

// Services is everything the router dispatches to
type Services struct {
	Reconciler reconcileService
	Users      userService
	Deposits   depositService
	Tokens     tokenParser
	Health     pinger
}

func NewRouter(s Services, logger logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimiddleware.RequestID,
		chimiddleware.Recoverer,
		middleware.LoggerMiddleware(logger),
	)

	r.Get("/health", handleHealth(s.Health))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ForwarderAuth(s.Tokens))

		r.Post("/webhook/sms", handleWebhook(s.Reconciler, logger))

		r.Route("/api", func(r chi.Router) {
			r.Post("/users", handleRegisterUser(s.Users, logger))
			r.Get("/users/{userID}", handleGetUser(s.Users, logger))
			r.Get("/users/{userID}/deposits", handleListDeposits(s.Deposits, logger))

			r.Post("/deposits", handleRequestDeposit(s.Deposits, logger))

			r.Get("/claims", handleListClaims(s.Reconciler, logger))
			r.Post("/claims", handleClaim(s.Reconciler, logger))
		})
	})

	return r
}

type reconcileService interface {
	// Handle one inbound SMS, errors are infrastructure failures only
	Ingest(ctx context.Context, rawText string, sender string) (reconcile.Outcome, error)

	// Credit a stored payment to the user
	// Has to return apperrors.ErrClaimNotFound if there is nothing to claim under the tx id
	Claim(ctx context.Context, userID uuid.UUID, networkTxID string) (reconcile.Outcome, error)

	ListClaims(ctx context.Context, onlyUnclaimed bool) ([]models.PendingClaim, error)
}

type userService interface {
	// Has to return apperrors.ErrUserAlreadyExists if the phone is taken
	Register(ctx context.Context, phone string) (models.User, error)
	Get(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type depositService interface {
	// Has to return apperrors.ErrAmountOutOfRange if the amount is outside the currency limits
	Request(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) (models.Deposit, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Deposit, error)
}

type tokenParser interface {
	Parse(token string) (string, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
