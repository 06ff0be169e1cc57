package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
)

var errRejected = errors.New("payment rejected")

type SettleParams struct {
	UserID    uuid.UUID
	DepositID uuid.UUID
	Event     models.PaymentEvent

	// Set when a stored claim is being credited, the claim is marked in the same transaction
	ClaimID *uuid.UUID
}

type Settlement struct {
	Result  CreditResult
	User    models.User
	Deposit models.Deposit
	Payment models.Payment

	// The network tx id was settled before, nothing was changed by this call
	Replayed bool
}

// Engine persists ledger decisions, one transaction per payment
type Engine struct {
	storage repository.Storage
	limits  Limits
	logger  logger.Logger
}

func NewEngine(storage repository.Storage, limits Limits, l logger.Logger) *Engine {
	return &Engine{storage: storage, limits: limits, logger: l}
}

func (e *Engine) Limits() Limits {
	return e.limits
}

// Settle applies the payment to the deposit exactly once per network tx id
//
// A tx id settled before returns the stored result with Replayed set,
// so does a message without a network id whose text was settled before.
// If the deposit is completed already apperrors.ErrDepositCompleted is returned and nothing changes.
// Balance, accumulator, deposit status and the settlement record are written in one transaction.
func (e *Engine) Settle(ctx context.Context, p SettleParams) (Settlement, error) {
	var s Settlement

	err := e.storage.InTx(ctx, func(storage repository.Storage) error {
		deposit, err := storage.Deposit().GetDeposit(ctx, p.DepositID)
		if err != nil {
			return err
		}
		if deposit.UserID != p.UserID {
			return fmt.Errorf("deposit %s of another user: %w", deposit.ID, apperrors.ErrDepositNotFound)
		}

		payment, created, err := storage.Payment().Reserve(ctx, models.Payment{
			NetworkTxID:   p.Event.NetworkTxID,
			DepositID:     p.DepositID,
			UserID:        p.UserID,
			Currency:      deposit.Currency,
			Amount:        p.Event.Amount,
			RawText:       p.Event.RawText,
			SyntheticTxID: p.Event.SyntheticTxID,
		})
		if err != nil {
			return err
		}
		if !created {
			// The stored payment may carry the id of an earlier delivery of the same text
			if p.Event.SyntheticTxID && payment.RawText != p.Event.RawText {
				return apperrors.ErrTxIDCollision
			}
			s = replayed(payment)
			return nil
		}

		user, err := storage.User().GetUser(ctx, p.UserID, repository.ForUpdate())
		if err != nil {
			return err
		}
		deposit, err = storage.Deposit().GetDeposit(ctx, p.DepositID, repository.ForUpdate())
		if err != nil {
			return err
		}
		if deposit.Status == models.DepositCompleted {
			return apperrors.ErrDepositCompleted
		}

		decision := Apply(e.limits, user, deposit, p.Event.Amount)
		if decision.Result.Kind == models.ResultRejected {
			s = Settlement{Result: decision.Result, User: user, Deposit: deposit}
			return errRejected
		}

		deposit, err = storage.Deposit().Transition(ctx, deposit.ID, p.Event.NetworkTxID, decision.DepositStatus)
		if err != nil {
			return err
		}

		user, err = storage.User().UpdateBalances(ctx, decision.User)
		if err != nil {
			return err
		}

		payment.Result = decision.Result.Kind
		payment.AmountCredited = decision.Result.AmountCredited
		payment.Bonus = decision.Result.Bonus
		payment.NewBalance = decision.Result.NewBalance
		payment.PendingTotal = decision.Result.PendingTotal
		if err := storage.Payment().Complete(ctx, payment); err != nil {
			return err
		}

		if p.ClaimID != nil {
			if _, err := storage.Claim().MarkClaimed(ctx, *p.ClaimID, p.UserID); err != nil {
				return err
			}
		}

		s = Settlement{Result: decision.Result, User: user, Deposit: deposit, Payment: payment}
		return nil
	})

	switch {
	case err == nil:
		e.logger.Debug("payment settled",
			"tx_id", p.Event.NetworkTxID,
			"deposit_id", p.DepositID,
			"result", s.Result.Kind,
			"replayed", s.Replayed,
		)
		return s, nil
	case errors.Is(err, errRejected):
		e.logger.Warn("payment rejected by ledger", "tx_id", p.Event.NetworkTxID, "reason", s.Result.Reason)
		return s, nil
	default:
		return Settlement{}, fmt.Errorf("settle %s: %w", p.Event.NetworkTxID, err)
	}
}

func replayed(p models.Payment) Settlement {
	return Settlement{
		Result: CreditResult{
			Kind:           p.Result,
			AmountCredited: p.AmountCredited,
			Bonus:          p.Bonus,
			NewBalance:     p.NewBalance,
			PendingTotal:   p.PendingTotal,
		},
		Payment:  p,
		Deposit:  models.Deposit{ID: p.DepositID, UserID: p.UserID, Currency: p.Currency},
		Replayed: true,
	}
}
