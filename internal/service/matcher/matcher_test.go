package matcher

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/paysms/internal/models"
)

func deposit(amount string, age time.Duration) models.Deposit {
	return models.Deposit{
		ID:              uuid.New(),
		Currency:        models.CurrencyCup,
		AmountRequested: decimal.RequireFromString(amount),
		Status:          models.DepositWaitingPayment,
		CreatedAt:       time.Now().Add(-age),
	}
}

func event(amount string) models.PaymentEvent {
	return models.PaymentEvent{Kind: models.EventCardToCard, Amount: decimal.RequireFromString(amount)}
}

func TestMatch(t *testing.T) {
	t.Run("exact amount wins over newest", func(t *testing.T) {
		newest := deposit("1000", time.Minute)
		older := deposit("1500", time.Hour)

		got, ok := Match(event("1500.00"), []models.Deposit{newest, older})

		require.True(t, ok)
		assert.Equal(t, older.ID, got.ID)
	})

	t.Run("first exact hit in given order", func(t *testing.T) {
		newer := deposit("1500", time.Minute)
		older := deposit("1500", time.Hour)

		got, ok := Match(event("1500"), []models.Deposit{newer, older})

		require.True(t, ok)
		assert.Equal(t, newer.ID, got.ID)
	})

	t.Run("fallback to newest", func(t *testing.T) {
		newest := deposit("1000", time.Minute)
		older := deposit("2000", time.Hour)

		got, ok := Match(event("500"), []models.Deposit{newest, older})

		require.True(t, ok)
		assert.Equal(t, newest.ID, got.ID)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := Match(event("500"), nil)

		assert.False(t, ok)
	})
}
