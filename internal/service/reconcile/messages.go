package reconcile

import (
	"fmt"

	"github.com/nkiryanov/paysms/internal/models"
)

// Plain texts, formatting is the delivery bot's job

func adminSettledText(o Outcome) string {
	switch o.Result.Kind {
	case models.ResultCredited:
		return fmt.Sprintf("Payment %s credited: user=%s deposit=%s %s credited=%s bonus=%s balance=%s",
			o.Event.NetworkTxID, o.UserID, o.DepositID, o.Currency,
			o.Result.AmountCredited.StringFixed(2), o.Result.Bonus.StringFixed(2), o.Result.NewBalance.StringFixed(2))
	default:
		return fmt.Sprintf("Payment %s held below minimum: user=%s deposit=%s %s pending=%s",
			o.Event.NetworkTxID, o.UserID, o.DepositID, o.Currency, o.Result.PendingTotal.StringFixed(2))
	}
}

func userSettledText(o Outcome) string {
	switch o.Result.Kind {
	case models.ResultCredited:
		return fmt.Sprintf("Deposit confirmed: %s %s credited (bonus %s). New balance: %s %s.",
			o.Result.AmountCredited.StringFixed(2), o.Currency, o.Result.Bonus.StringFixed(2),
			o.Result.NewBalance.StringFixed(2), o.Currency)
	default:
		return fmt.Sprintf("Payment of %s received. Accumulated %s %s, it will be credited once the minimum is reached.",
			o.Event.Amount.StringFixed(2), o.Result.PendingTotal.StringFixed(2), o.Currency)
	}
}

func adminClaimText(c models.PendingClaim) string {
	return fmt.Sprintf("Unattributed payment %s (%s): %s CUP phone=%q reason=%s\n%s",
		c.NetworkTxID, c.Kind, c.Amount.StringFixed(2), c.Phone, c.Reason, c.RawText)
}

func userNoDepositText(e models.PaymentEvent) string {
	return fmt.Sprintf("Payment %s of %s CUP received but you have no open deposit. Create one and claim it with the transaction id.",
		e.NetworkTxID, e.Amount.StringFixed(2))
}
