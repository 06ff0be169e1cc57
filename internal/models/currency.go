package models

const (
	CurrencyCup   = "cup"
	CurrencySaldo = "saldo"
	CurrencyUsdt  = "usdt"
)

func IsKnownCurrency(c string) bool {
	switch c {
	case CurrencyCup, CurrencySaldo, CurrencyUsdt:
		return true
	default:
		return false
	}
}
