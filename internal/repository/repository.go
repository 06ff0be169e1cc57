package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/models"
)

type UserRepo interface {
	// Create user with the phone number
	// If the phone is taken already must return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, phone string) (models.User, error)

	// If user not found must return apperrors.ErrUserNotFound
	GetUser(ctx context.Context, userID uuid.UUID, opts ...LockOption) (models.User, error)

	// Find the first stored user whose phone contains the given one or is contained by it
	// Ambiguous matches resolve to the oldest user
	// If nothing matches must return apperrors.ErrUserNotFound
	FindByPhone(ctx context.Context, phone string) (models.User, error)

	// Persist balances, the CUP accumulator and first deposit flags of the user
	UpdateBalances(ctx context.Context, user models.User) (models.User, error)
}

type DepositRepo interface {
	CreateDeposit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) (models.Deposit, error)

	// If deposit not found must return apperrors.ErrDepositNotFound
	GetDeposit(ctx context.Context, depositID uuid.UUID, opts ...LockOption) (models.Deposit, error)

	// Open deposits of the user, newest first, at most limit items
	ListOpen(ctx context.Context, userID uuid.UUID, limit int) ([]models.Deposit, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Deposit, error)

	// Move the deposit to the status and bind the network tx id if none is bound yet
	// The write is conditioned on the deposit not being completed
	// If it is completed already must return apperrors.ErrDepositCompleted
	Transition(ctx context.Context, depositID uuid.UUID, networkTxID string, status string) (models.Deposit, error)
}

type PaymentRepo interface {
	// Insert the payment if no payment with the same network tx id exists
	// A payment with a synthesized id is not inserted either if one with the same raw text exists
	// Returns the stored payment and whether it was created by this call
	Reserve(ctx context.Context, p models.Payment) (models.Payment, bool, error)

	// If payment not found must return apperrors.ErrPaymentNotFound
	GetPayment(ctx context.Context, networkTxID string) (models.Payment, error)

	// Payment with a synthesized id stored from the same raw text
	// If payment not found must return apperrors.ErrPaymentNotFound
	FindSynthetic(ctx context.Context, rawText string) (models.Payment, error)

	// Store the ledger outcome of the payment
	Complete(ctx context.Context, p models.Payment) error
}

type ClaimRepo interface {
	// Insert the claim if no claim with the same network tx id exists
	// Claims with a synthesized id are deduplicated by raw text the same way
	// Returns the stored claim and whether it was created by this call
	InsertClaim(ctx context.Context, c models.PendingClaim) (models.PendingClaim, bool, error)

	// If claim not found must return apperrors.ErrClaimNotFound
	GetClaim(ctx context.Context, networkTxID string) (models.PendingClaim, error)

	// Claim with a synthesized id stored from the same raw text
	// If claim not found must return apperrors.ErrClaimNotFound
	FindSynthetic(ctx context.Context, rawText string) (models.PendingClaim, error)

	// Mark unclaimed claim as claimed by the user
	// If the claim does not exist or is claimed already must return apperrors.ErrClaimNotFound
	MarkClaimed(ctx context.Context, claimID uuid.UUID, userID uuid.UUID) (models.PendingClaim, error)

	ListClaims(ctx context.Context, onlyUnclaimed bool) ([]models.PendingClaim, error)

	// Unclaimed claims filtered by opts, oldest first
	ListPending(ctx context.Context, opts ListPendingOpts) ([]models.PendingClaim, error)
}

type ListPendingOpts struct {
	// Any reason if empty
	Reasons []string

	// Skip claims that do not name the payer phone
	WithPhone bool

	// No limit if zero
	Limit int
}

type Storage interface {
	User() UserRepo
	Deposit() DepositRepo
	Payment() PaymentRepo
	Claim() ClaimRepo

	// Run fn in a transaction, commit if fn returns nil and rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
