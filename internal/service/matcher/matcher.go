package matcher

import (
	"github.com/nkiryanov/paysms/internal/models"
)

// Match picks the deposit a payment settles
// Candidates are expected newest first. An exact amount wins, otherwise the newest deposit is taken
// since CUP payments below the minimum legitimately differ from the requested amount.
func Match(event models.PaymentEvent, candidates []models.Deposit) (models.Deposit, bool) {
	if len(candidates) == 0 {
		return models.Deposit{}, false
	}

	for _, d := range candidates {
		if d.AmountRequested.Equal(event.Amount) {
			return d, true
		}
	}

	return candidates[0], true
}
