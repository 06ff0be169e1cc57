package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
	"github.com/nkiryanov/paysms/internal/testutil"
)

func Test_PaymentRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withDeposit := func(t *testing.T, fn func(tx pgx.Tx, d models.Deposit, r *PaymentRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)
			user, err := s.User().CreateUser(t.Context(), "5351239793")
			require.NoError(t, err)
			d, err := s.Deposit().CreateDeposit(t.Context(), user.ID, models.CurrencyCup, decimal.NewFromInt(1500))
			require.NoError(t, err)

			fn(tx, d, &PaymentRepo{DB: tx})
		})
	}

	t.Run("reserve once", func(t *testing.T) {
		withDeposit(t, func(tx pgx.Tx, d models.Deposit, r *PaymentRepo) {
			p := models.Payment{
				NetworkTxID: "T2602600000MT",
				DepositID:   d.ID,
				UserID:      d.UserID,
				Currency:    d.Currency,
				Amount:      decimal.NewFromInt(1500),
				RawText:     "sms",
			}

			first, created, err := r.Reserve(t.Context(), p)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, "", first.Result)

			err = r.Complete(t.Context(), models.Payment{
				NetworkTxID:    p.NetworkTxID,
				Result:         models.ResultCredited,
				AmountCredited: decimal.NewFromInt(1650),
				Bonus:          decimal.NewFromInt(150),
				NewBalance:     decimal.NewFromInt(1650),
			})
			require.NoError(t, err)

			second, created, err := r.Reserve(t.Context(), p)
			require.NoError(t, err)
			assert.False(t, created, "second reservation must return the stored payment")
			assert.Equal(t, models.ResultCredited, second.Result)
			assert.True(t, second.AmountCredited.Equal(decimal.NewFromInt(1650)))
			assert.True(t, second.Bonus.Equal(decimal.NewFromInt(150)))
		})
	})

	t.Run("synthetic tx id is unique by text", func(t *testing.T) {
		withDeposit(t, func(tx pgx.Tx, d models.Deposit, r *PaymentRepo) {
			p := models.Payment{
				NetworkTxID:   "UNKNOWN_1760000000",
				DepositID:     d.ID,
				UserID:        d.UserID,
				Currency:      d.Currency,
				Amount:        decimal.NewFromInt(1500),
				RawText:       "sms without id",
				SyntheticTxID: true,
			}

			first, created, err := r.Reserve(t.Context(), p)
			require.NoError(t, err)
			require.True(t, created)
			assert.True(t, first.SyntheticTxID)

			p.NetworkTxID = "UNKNOWN_1760000005"
			second, created, err := r.Reserve(t.Context(), p)
			require.NoError(t, err)
			assert.False(t, created, "same text must not be reserved twice")
			assert.Equal(t, "UNKNOWN_1760000000", second.NetworkTxID)

			found, err := r.FindSynthetic(t.Context(), "sms without id")
			require.NoError(t, err)
			assert.Equal(t, "UNKNOWN_1760000000", found.NetworkTxID)

			_, err = r.FindSynthetic(t.Context(), "another sms")
			assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
		})
	})

	t.Run("same text with real tx ids is reserved twice", func(t *testing.T) {
		withDeposit(t, func(tx pgx.Tx, d models.Deposit, r *PaymentRepo) {
			p := models.Payment{
				DepositID: d.ID,
				UserID:    d.UserID,
				Currency:  d.Currency,
				Amount:    decimal.NewFromInt(100),
				RawText:   "same text",
			}

			p.NetworkTxID = "R1"
			_, created, err := r.Reserve(t.Context(), p)
			require.NoError(t, err)
			assert.True(t, created)

			p.NetworkTxID = "R2"
			_, created, err = r.Reserve(t.Context(), p)
			require.NoError(t, err)
			assert.True(t, created)

			_, err = r.FindSynthetic(t.Context(), "same text")
			assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
		})
	})

	t.Run("get and complete unknown payment", func(t *testing.T) {
		withDeposit(t, func(tx pgx.Tx, d models.Deposit, r *PaymentRepo) {
			_, err := r.GetPayment(t.Context(), "NOPE")
			assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)

			err = r.Complete(t.Context(), models.Payment{NetworkTxID: "NOPE", Result: models.ResultCredited})
			assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
		})
	})
}

func Test_Storage_InTx(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("rollback on error", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)

			err := s.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.User().CreateUser(t.Context(), "5350000009")
				require.NoError(t, err)
				return apperrors.ErrDepositCompleted
			})
			require.ErrorIs(t, err, apperrors.ErrDepositCompleted)

			_, err = s.User().FindByPhone(t.Context(), "5350000009")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "user must be rolled back")
		})
	})

	t.Run("commit on success", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)

			err := s.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.User().CreateUser(t.Context(), "5350000010")
				return err
			})
			require.NoError(t, err)

			_, err = s.User().FindByPhone(t.Context(), "5350000010")
			assert.NoError(t, err)
		})
	})
}
