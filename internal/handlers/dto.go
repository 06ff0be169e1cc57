package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/service/reconcile"
)

type userResponse struct {
	ID                uuid.UUID       `json:"id"`
	Phone             string          `json:"phone"`
	BalanceCup        decimal.Decimal `json:"balance_cup"`
	BalanceSaldo      decimal.Decimal `json:"balance_saldo"`
	BalanceUsdt       decimal.Decimal `json:"balance_usdt"`
	PendingBalanceCup decimal.Decimal `json:"pending_balance_cup"`
	FirstDepCup       bool            `json:"first_dep_cup"`
	FirstDepSaldo     bool            `json:"first_dep_saldo"`
	FirstDepUsdt      bool            `json:"first_dep_usdt"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:                u.ID,
		Phone:             u.PhoneNumber,
		BalanceCup:        u.BalanceCup,
		BalanceSaldo:      u.BalanceSaldo,
		BalanceUsdt:       u.BalanceUsdt,
		PendingBalanceCup: u.PendingBalanceCup,
		FirstDepCup:       u.FirstDepCup,
		FirstDepSaldo:     u.FirstDepSaldo,
		FirstDepUsdt:      u.FirstDepUsdt,
		CreatedAt:         u.CreatedAt,
	}
}

type depositResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Currency        string          `json:"currency"`
	AmountRequested decimal.Decimal `json:"amount_requested"`
	Status          string          `json:"status"`
	TxID            *string         `json:"tx_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ModifiedAt      time.Time       `json:"modified_at"`
}

func newDepositResponse(d models.Deposit) depositResponse {
	return depositResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		Currency:        d.Currency,
		AmountRequested: d.AmountRequested,
		Status:          d.Status,
		TxID:            d.NetworkTxID,
		CreatedAt:       d.CreatedAt,
		ModifiedAt:      d.ModifiedAt,
	}
}

type claimResponse struct {
	ID        uuid.UUID        `json:"id"`
	TxID      string           `json:"tx_id"`
	Kind      models.EventKind `json:"kind"`
	Amount    decimal.Decimal  `json:"amount"`
	Phone     string           `json:"phone,omitempty"`
	Reason    string           `json:"reason"`
	Claimed   bool             `json:"claimed"`
	ClaimedBy *uuid.UUID       `json:"claimed_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ClaimedAt *time.Time       `json:"claimed_at,omitempty"`
}

func newClaimResponse(c models.PendingClaim) claimResponse {
	return claimResponse{
		ID:        c.ID,
		TxID:      c.NetworkTxID,
		Kind:      c.Kind,
		Amount:    c.Amount,
		Phone:     c.Phone,
		Reason:    c.Reason,
		Claimed:   c.Claimed,
		ClaimedBy: c.ClaimedBy,
		CreatedAt: c.CreatedAt,
		ClaimedAt: c.ClaimedAt,
	}
}

type eventResponse struct {
	Kind      models.EventKind `json:"kind"`
	Amount    decimal.Decimal  `json:"amount"`
	Phone     string           `json:"phone,omitempty"`
	Card      string           `json:"card,omitempty"`
	TxID      string           `json:"tx_id"`
	Synthetic bool             `json:"synthetic_tx_id,omitempty"`
}

type resultResponse struct {
	Kind           string           `json:"kind"`
	AmountCredited *decimal.Decimal `json:"amount_credited,omitempty"`
	Bonus          *decimal.Decimal `json:"bonus,omitempty"`
	NewBalance     *decimal.Decimal `json:"new_balance,omitempty"`
	PendingTotal   *decimal.Decimal `json:"pending_total,omitempty"`
	Reason         string           `json:"reason,omitempty"`
}

type outcomeResponse struct {
	State     string          `json:"state"`
	Reason    string          `json:"reason,omitempty"`
	Event     eventResponse   `json:"event"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
	DepositID *uuid.UUID      `json:"deposit_id,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	Result    *resultResponse `json:"result,omitempty"`
	Claim     *claimResponse  `json:"claim,omitempty"`
	Replayed  bool            `json:"replayed,omitempty"`
}

func newOutcomeResponse(o reconcile.Outcome) outcomeResponse {
	resp := outcomeResponse{
		State:  o.State,
		Reason: o.Reason,
		Event: eventResponse{
			Kind:      o.Event.Kind,
			Amount:    o.Event.Amount,
			Phone:     o.Event.SourcePhone,
			Card:      o.Event.DestinationCard,
			TxID:      o.Event.NetworkTxID,
			Synthetic: o.Event.SyntheticTxID,
		},
		Currency: o.Currency,
		Replayed: o.Replayed,
	}

	if o.UserID != uuid.Nil {
		resp.UserID = &o.UserID
	}
	if o.DepositID != uuid.Nil {
		resp.DepositID = &o.DepositID
	}
	if o.Claim != nil {
		claim := newClaimResponse(*o.Claim)
		resp.Claim = &claim
	}

	if o.IsSettled() {
		r := o.Result
		result := &resultResponse{Kind: r.Kind, Reason: r.Reason}
		switch r.Kind {
		case models.ResultCredited:
			result.AmountCredited = &r.AmountCredited
			result.Bonus = &r.Bonus
			result.NewBalance = &r.NewBalance
		case models.ResultPendingMinimum:
			result.PendingTotal = &r.PendingTotal
		}
		resp.Result = result
	}

	return resp
}
