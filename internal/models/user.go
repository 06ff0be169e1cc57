package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	PhoneNumber string

	BalanceCup   decimal.Decimal
	BalanceSaldo decimal.Decimal
	BalanceUsdt  decimal.Decimal

	// CUP payments below the minimum accumulate here until the threshold is crossed
	PendingBalanceCup decimal.Decimal

	FirstDepCup   bool
	FirstDepSaldo bool
	FirstDepUsdt  bool
}

// Balance returns the balance for the currency, zero for unknown ones
func (u User) Balance(currency string) decimal.Decimal {
	switch currency {
	case CurrencyCup:
		return u.BalanceCup
	case CurrencySaldo:
		return u.BalanceSaldo
	case CurrencyUsdt:
		return u.BalanceUsdt
	default:
		return decimal.Zero
	}
}

func (u *User) SetBalance(currency string, value decimal.Decimal) {
	switch currency {
	case CurrencyCup:
		u.BalanceCup = value
	case CurrencySaldo:
		u.BalanceSaldo = value
	case CurrencyUsdt:
		u.BalanceUsdt = value
	}
}

// FirstDeposit reports whether the first deposit bonus is still available
func (u User) FirstDeposit(currency string) bool {
	switch currency {
	case CurrencyCup:
		return u.FirstDepCup
	case CurrencySaldo:
		return u.FirstDepSaldo
	case CurrencyUsdt:
		return u.FirstDepUsdt
	default:
		return false
	}
}

func (u *User) ClearFirstDeposit(currency string) {
	switch currency {
	case CurrencyCup:
		u.FirstDepCup = false
	case CurrencySaldo:
		u.FirstDepSaldo = false
	case CurrencyUsdt:
		u.FirstDepUsdt = false
	}
}
