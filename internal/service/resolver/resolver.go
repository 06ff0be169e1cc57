package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
)

const (
	DefaultWindow = 10

	countryCode = "53"
	localLength = 8
)

type Option func(*Resolver)

// Max number of open deposits considered for a payment
func WithWindow(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.window = n
		}
	}
}

// Resolver finds who a payment belongs to
type Resolver struct {
	storage repository.Storage
	window  int
}

func New(storage repository.Storage, opts ...Option) *Resolver {
	r := &Resolver{storage: storage, window: DefaultWindow}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveUser finds the user by the phone reported by the payment network
// The network reports phones with or without the country code, so several forms are tried in order
// Returns apperrors.ErrUserNotFound when no form matches
func (r *Resolver) ResolveUser(ctx context.Context, phone string) (models.User, error) {
	for _, candidate := range PhoneCandidates(phone) {
		user, err := r.storage.User().FindByPhone(ctx, candidate)
		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, apperrors.ErrUserNotFound):
			continue
		default:
			return models.User{}, fmt.Errorf("resolve user: %w", err)
		}
	}

	return models.User{}, apperrors.ErrUserNotFound
}

// OpenDeposits returns deposits still waiting for money, newest first
func (r *Resolver) OpenDeposits(ctx context.Context, userID uuid.UUID) ([]models.Deposit, error) {
	deposits, err := r.storage.Deposit().ListOpen(ctx, userID, r.window)
	if err != nil {
		return nil, fmt.Errorf("list open deposits: %w", err)
	}
	return deposits, nil
}

// PhoneCandidates lists the lookup forms of a phone, most specific first
func PhoneCandidates(phone string) []string {
	digits := NormalizePhone(phone)

	switch {
	case digits == "":
		return nil
	case len(digits) == len(countryCode)+localLength && strings.HasPrefix(digits, countryCode):
		return []string{digits, strings.TrimPrefix(digits, countryCode)}
	case len(digits) == localLength:
		return []string{countryCode + digits, digits}
	default:
		return []string{digits}
	}
}

// CanonicalPhone is the same for every form of a phone, the one with the country code when known
func CanonicalPhone(phone string) string {
	candidates := PhoneCandidates(phone)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

// NormalizePhone keeps digits only
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
