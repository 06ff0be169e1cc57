package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ClaimReasonNoPhone          = "NO_PHONE"
	ClaimReasonUnmatchedUser    = "UNMATCHED_USER"
	ClaimReasonUnmatchedDeposit = "UNMATCHED_DEPOSIT"
)

// PendingClaim keeps a payment nobody could be credited for, waiting for manual reconciliation
type PendingClaim struct {
	ID          uuid.UUID
	NetworkTxID string
	Kind        EventKind
	Amount      decimal.Decimal
	Phone       string
	RawText     string
	Reason      string
	Claimed     bool
	ClaimedBy   *uuid.UUID
	CreatedAt   time.Time
	ClaimedAt   *time.Time

	SyntheticTxID bool
}

// Event rebuilds the payment event the claim was stored from
func (c PendingClaim) Event() PaymentEvent {
	return PaymentEvent{
		Kind:          c.Kind,
		Amount:        c.Amount,
		SourcePhone:   c.Phone,
		NetworkTxID:   c.NetworkTxID,
		SyntheticTxID: c.SyntheticTxID,
		RawText:       c.RawText,
	}
}
