package reconcile

import (
	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/service/ledger"
)

const (
	StateRejected         = "REJECTED"
	StateStoredForClaim   = "STORED_FOR_CLAIM"
	StateUnmatchedUser    = "UNMATCHED_USER"
	StateUnmatchedDeposit = "UNMATCHED_DEPOSIT"
	StateSettled          = "SETTLED"
)

const (
	ReasonNotPaymentSender = "not_payment_sender"
	ReasonUnknownKind      = "unknown_kind"
	ReasonInvalidAmount    = "invalid_amount"
)

// Outcome is the terminal state of one inbound message
type Outcome struct {
	State  string
	Reason string
	Event  models.PaymentEvent

	UserID    uuid.UUID
	DepositID uuid.UUID
	Currency  string

	// Set for STORED_FOR_CLAIM and the unmatched states
	Claim *models.PendingClaim

	// Set for SETTLED
	Result ledger.CreditResult

	// The message was handled before and nothing changed this time
	Replayed bool
}

func (o Outcome) IsSettled() bool {
	return o.State == StateSettled
}

func claimState(reason string) string {
	switch reason {
	case models.ClaimReasonUnmatchedUser:
		return StateUnmatchedUser
	case models.ClaimReasonUnmatchedDeposit:
		return StateUnmatchedDeposit
	default:
		return StateStoredForClaim
	}
}
