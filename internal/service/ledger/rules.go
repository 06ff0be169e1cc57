package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/models"
)

const ReasonUnknownCurrency = "unknown_currency"

var hundred = decimal.NewFromInt(100)

// CreditResult is what a payment did to the user balance
type CreditResult struct {
	// One of models.ResultCredited, models.ResultPendingMinimum, models.ResultRejected
	Kind string

	// Credited only, the bonus is included in AmountCredited
	AmountCredited decimal.Decimal
	Bonus          decimal.Decimal
	NewBalance     decimal.Decimal

	// Pending only
	PendingTotal decimal.Decimal

	// Rejected only
	Reason string
}

// Decision holds the result and the state the user and deposit move to
type Decision struct {
	Result        CreditResult
	User          models.User
	DepositStatus string
}

// Apply computes the effect of a payment of amount on the deposit
// It is pure, persisting the decision is up to the caller
func Apply(limits Limits, user models.User, deposit models.Deposit, amount decimal.Decimal) Decision {
	cl, ok := limits.For(deposit.Currency)
	if !ok {
		return Decision{
			Result:        CreditResult{Kind: models.ResultRejected, Reason: ReasonUnknownCurrency},
			User:          user,
			DepositStatus: deposit.Status,
		}
	}

	total := amount
	if deposit.Currency == models.CurrencyCup {
		total = user.PendingBalanceCup.Add(amount)
	}

	if total.LessThan(cl.Min) {
		if deposit.Currency == models.CurrencyCup {
			user.PendingBalanceCup = total
		}
		return Decision{
			Result:        CreditResult{Kind: models.ResultPendingMinimum, PendingTotal: total},
			User:          user,
			DepositStatus: models.DepositPendingMinimum,
		}
	}

	bonus := decimal.Zero
	if user.FirstDeposit(deposit.Currency) {
		bonus = total.Mul(cl.FirstDepositBonusPct).Div(hundred).Round(2)
	}
	credited := total.Add(bonus)
	balance := user.Balance(deposit.Currency).Add(credited)

	user.SetBalance(deposit.Currency, balance)
	user.ClearFirstDeposit(deposit.Currency)
	if deposit.Currency == models.CurrencyCup {
		user.PendingBalanceCup = decimal.Zero
	}

	return Decision{
		Result: CreditResult{
			Kind:           models.ResultCredited,
			AmountCredited: credited,
			Bonus:          bonus,
			NewBalance:     balance,
		},
		User:          user,
		DepositStatus: models.DepositCompleted,
	}
}
