package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventCardToCard     EventKind = "CARD_TO_CARD"
	EventCardToWallet   EventKind = "CARD_TO_WALLET"
	EventWalletToWallet EventKind = "WALLET_TO_WALLET"
	EventWalletToCard   EventKind = "WALLET_TO_CARD"
	EventUnknown        EventKind = "UNKNOWN"
)

// PaymentEvent is what a single inbound SMS says happened on the payment network
type PaymentEvent struct {
	Kind   EventKind
	Amount decimal.Decimal

	// Empty when the message does not name the payer phone
	SourcePhone     string
	DestinationCard string

	// Never empty. SyntheticTxID is set when the message carried no id
	// and one was built from the classification time.
	NetworkTxID   string
	SyntheticTxID bool

	RawText string
}

func (e PaymentEvent) HasPhone() bool {
	return e.SourcePhone != ""
}

const (
	ResultCredited       = "CREDITED"
	ResultPendingMinimum = "PENDING_MINIMUM"
	ResultRejected       = "REJECTED"
)

// Payment is the settlement record of one network transaction
// Its primary key is the network tx id, so a transaction is applied at most once
// Payments with a synthesized id are unique by raw text as well
type Payment struct {
	NetworkTxID string
	DepositID   uuid.UUID
	UserID      uuid.UUID
	Currency    string
	Amount      decimal.Decimal
	RawText     string
	CreatedAt   time.Time

	// The id was synthesized, the raw text identifies the payment instead
	SyntheticTxID bool

	// Empty until the ledger stores the outcome in the same transaction
	Result         string
	AmountCredited decimal.Decimal
	Bonus          decimal.Decimal
	NewBalance     decimal.Decimal
	PendingTotal   decimal.Decimal
}
