package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/models"
)

type CurrencyLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal

	// Percent added on top of the first qualifying deposit in the currency
	FirstDepositBonusPct decimal.Decimal
}

type Limits struct {
	Cup   CurrencyLimits
	Saldo CurrencyLimits
	Usdt  CurrencyLimits
}

func DefaultLimits() Limits {
	return Limits{
		Cup: CurrencyLimits{
			Min:                  decimal.NewFromInt(1000),
			Max:                  decimal.NewFromInt(50000),
			FirstDepositBonusPct: decimal.NewFromInt(10),
		},
		Saldo: CurrencyLimits{
			Min:                  decimal.NewFromInt(500),
			Max:                  decimal.NewFromInt(20000),
			FirstDepositBonusPct: decimal.NewFromInt(10),
		},
		Usdt: CurrencyLimits{
			Min:                  decimal.NewFromInt(10),
			Max:                  decimal.NewFromInt(1000),
			FirstDepositBonusPct: decimal.NewFromInt(5),
		},
	}
}

// For returns limits of the currency, false for unknown currencies
func (l Limits) For(currency string) (CurrencyLimits, bool) {
	switch currency {
	case models.CurrencyCup:
		return l.Cup, true
	case models.CurrencySaldo:
		return l.Saldo, true
	case models.CurrencyUsdt:
		return l.Usdt, true
	default:
		return CurrencyLimits{}, false
	}
}
