package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/testutil"
)

func Test_DepositRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withUser := func(t *testing.T, fn func(tx pgx.Tx, user models.User, r *DepositRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			user, err := users.CreateUser(t.Context(), "5351239793")
			require.NoError(t, err)

			fn(tx, user, &DepositRepo{DB: tx})
		})
	}

	t.Run("create and get", func(t *testing.T) {
		withUser(t, func(tx pgx.Tx, user models.User, r *DepositRepo) {
			d, err := r.CreateDeposit(t.Context(), user.ID, models.CurrencyCup, decimal.NewFromInt(1500))
			require.NoError(t, err)

			got, err := r.GetDeposit(t.Context(), d.ID)

			require.NoError(t, err)
			assert.Equal(t, models.DepositWaitingPayment, got.Status)
			assert.Equal(t, user.ID, got.UserID)
			assert.Nil(t, got.NetworkTxID)
			assert.True(t, got.AmountRequested.Equal(decimal.NewFromInt(1500)))

			_, err = r.GetDeposit(t.Context(), uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrDepositNotFound)
		})
	})

	t.Run("list open newest first within window", func(t *testing.T) {
		withUser(t, func(tx pgx.Tx, user models.User, r *DepositRepo) {
			var ids []uuid.UUID
			for i := range 4 {
				d, err := r.CreateDeposit(t.Context(), user.ID, models.CurrencyCup, decimal.NewFromInt(int64(1000+i)))
				require.NoError(t, err)
				ids = append(ids, d.ID)
			}
			_, err := r.Transition(t.Context(), ids[3], "T-DONE", models.DepositCompleted)
			require.NoError(t, err)

			open, err := r.ListOpen(t.Context(), user.ID, 2)

			require.NoError(t, err)
			require.Len(t, open, 2)
			assert.Equal(t, ids[2], open[0].ID, "completed deposits must be skipped, newest open goes first")
			assert.Equal(t, ids[1], open[1].ID)

			all, err := r.ListByUser(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Len(t, all, 4)
		})
	})

	t.Run("transition binds first tx id only", func(t *testing.T) {
		withUser(t, func(tx pgx.Tx, user models.User, r *DepositRepo) {
			d, err := r.CreateDeposit(t.Context(), user.ID, models.CurrencyCup, decimal.NewFromInt(1000))
			require.NoError(t, err)

			pending, err := r.Transition(t.Context(), d.ID, "T1", models.DepositPendingMinimum)
			require.NoError(t, err)
			require.NotNil(t, pending.NetworkTxID)
			assert.Equal(t, "T1", *pending.NetworkTxID)
			assert.Equal(t, models.DepositPendingMinimum, pending.Status)

			completed, err := r.Transition(t.Context(), d.ID, "T2", models.DepositCompleted)
			require.NoError(t, err)
			assert.Equal(t, "T1", *completed.NetworkTxID, "bound tx id must never be overwritten")
			assert.Equal(t, models.DepositCompleted, completed.Status)

			_, err = r.Transition(t.Context(), d.ID, "T3", models.DepositCompleted)
			assert.ErrorIs(t, err, apperrors.ErrDepositCompleted, "completed deposit must never be mutated")
		})
	})
}
