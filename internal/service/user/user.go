package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
	"github.com/nkiryanov/paysms/internal/service/resolver"
)

const (
	minPhoneLength = 8
	maxPhoneLength = 15
)

type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// Register creates the user, the phone is stored as digits only
func (s *UserService) Register(ctx context.Context, phone string) (models.User, error) {
	digits := resolver.NormalizePhone(phone)
	if len(digits) < minPhoneLength || len(digits) > maxPhoneLength {
		return models.User{}, apperrors.ErrPhoneInvalid
	}

	user, err := s.storage.User().CreateUser(ctx, digits)
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUser(ctx, userID)
}
