package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrPhoneInvalid      = errors.New("phone number is invalid")

	ErrDepositNotFound  = errors.New("deposit not found")
	ErrDepositCompleted = errors.New("deposit already completed")
	ErrNoOpenDeposit    = errors.New("user has no open deposit")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrAmountOutOfRange = errors.New("amount out of allowed range")

	ErrPaymentNotFound = errors.New("payment not found")
	ErrTxIDCollision   = errors.New("transaction id already used by a different message")

	ErrClaimNotFound = errors.New("claim not found or already claimed")
	ErrClaimNotOwned = errors.New("claim belongs to a different phone")

	ErrTokenInvalid = errors.New("forwarder token is invalid")
	ErrLockTimeout  = errors.New("lock not acquired in time")
)
