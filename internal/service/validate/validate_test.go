package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhn(t *testing.T) {
	tests := []struct {
		number string
		err    error
	}{
		{"9204129976918161", nil},
		{"9227069995328054", nil},
		{"79927398713", nil},
		{"0", nil},
		{"9204129976918162", ErrCardLuhn},
		{"79927398710", ErrCardLuhn},
		{"9204 1299", ErrCardDigits},
		{"", ErrCardDigits},
	}

	for _, tc := range tests {
		t.Run(tc.number, func(t *testing.T) {
			err := Luhn(tc.number)

			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCard(t *testing.T) {
	t.Run("grouped", func(t *testing.T) {
		digits, err := Card(" 9204-1299-7691-8161 ")

		require.NoError(t, err)
		assert.Equal(t, "9204129976918161", digits)
	})

	t.Run("spaces", func(t *testing.T) {
		digits, err := Card("9227 0699 9532 8054")

		require.NoError(t, err)
		assert.Equal(t, "9227069995328054", digits)
	})

	t.Run("luhn valid but short", func(t *testing.T) {
		_, err := Card("79927398713")

		require.ErrorIs(t, err, ErrCardLength)
	})

	t.Run("typo", func(t *testing.T) {
		_, err := Card("9204129976918116")

		require.ErrorIs(t, err, ErrCardLuhn)
	})
}
