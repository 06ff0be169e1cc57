package deposit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
	"github.com/nkiryanov/paysms/internal/service/ledger"
)

// DepositService opens deposit requests the payment SMS are later matched against
type DepositService struct {
	storage repository.Storage
	limits  ledger.Limits
	logger  logger.Logger
}

func NewService(storage repository.Storage, limits ledger.Limits, l logger.Logger) *DepositService {
	return &DepositService{storage: storage, limits: limits, logger: l}
}

// Request validates the amount against the currency limits and opens the deposit
func (s *DepositService) Request(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) (models.Deposit, error) {
	cl, ok := s.limits.For(currency)
	if !ok {
		return models.Deposit{}, apperrors.ErrUnknownCurrency
	}
	if amount.LessThan(cl.Min) || amount.GreaterThan(cl.Max) {
		return models.Deposit{}, fmt.Errorf("%s %s not in [%s, %s]: %w", amount, currency, cl.Min, cl.Max, apperrors.ErrAmountOutOfRange)
	}

	var d models.Deposit
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		if _, err := storage.User().GetUser(ctx, userID); err != nil {
			return err
		}

		var err error
		d, err = storage.Deposit().CreateDeposit(ctx, userID, currency, amount)
		return err
	})
	if err != nil {
		return models.Deposit{}, err
	}

	s.logger.Info("deposit requested", "deposit_id", d.ID, "user_id", userID, "currency", currency, "amount", amount)
	return d, nil
}

func (s *DepositService) List(ctx context.Context, userID uuid.UUID) ([]models.Deposit, error) {
	if _, err := s.storage.User().GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.storage.Deposit().ListByUser(ctx, userID)
}
