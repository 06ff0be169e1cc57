package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DepositWaitingPayment = "WAITING_PAYMENT"
	DepositPendingMinimum = "PENDING_MINIMUM"
	DepositCompleted      = "COMPLETED"
)

type Deposit struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Currency        string
	AmountRequested decimal.Decimal
	Status          string
	NetworkTxID     *string
	CreatedAt       time.Time
	ModifiedAt      time.Time
}

func (d Deposit) IsOpen() bool {
	return d.Status == DepositWaitingPayment || d.Status == DepositPendingMinimum
}
