package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
)

type PaymentRepo struct {
	DB DBTX
}

const paymentColumns = `network_tx_id, deposit_id, user_id, currency, amount, raw_text, created_at, synthetic_tx_id,
	result, amount_credited, bonus, new_balance, pending_total`

// Insert the payment or return the one stored under the same tx id
// A synthesized id also conflicts with a synthesized payment of the same text, the tx id match wins
const reservePayment = `-- name: ReservePayment
WITH insert_payment AS (
	INSERT INTO payments (network_tx_id, deposit_id, user_id, currency, amount, raw_text, created_at, synthetic_tx_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT DO NOTHING
	RETURNING ` + paymentColumns + `, true AS created
)
SELECT * FROM insert_payment
UNION ALL
(
	SELECT ` + paymentColumns + `, false AS created FROM payments
	WHERE network_tx_id = $1 OR ($8 AND synthetic_tx_id AND md5(raw_text) = md5($6))
	ORDER BY network_tx_id = $1 DESC
	LIMIT 1
)
`

func (r *PaymentRepo) Reserve(ctx context.Context, p models.Payment) (models.Payment, bool, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	var created bool
	rows, _ := r.DB.Query(ctx, reservePayment, p.NetworkTxID, p.DepositID, p.UserID, p.Currency, p.Amount, p.RawText, p.CreatedAt, p.SyntheticTxID)
	stored, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Payment, error) {
		var s models.Payment
		err := row.Scan(
			&s.NetworkTxID, &s.DepositID, &s.UserID, &s.Currency, &s.Amount, &s.RawText, &s.CreatedAt, &s.SyntheticTxID,
			&s.Result, &s.AmountCredited, &s.Bonus, &s.NewBalance, &s.PendingTotal,
			&created,
		)
		return s, err
	})

	switch {
	case err == nil:
		return stored, created, nil
	case errors.Is(err, pgx.ErrNoRows):
		// A concurrent transaction committed the row after this statement took its snapshot
		stored, err = r.GetPayment(ctx, p.NetworkTxID)
		if errors.Is(err, apperrors.ErrPaymentNotFound) && p.SyntheticTxID {
			stored, err = r.FindSynthetic(ctx, p.RawText)
		}
		return stored, false, err
	default:
		return stored, false, fmt.Errorf("db error: %w", err)
	}
}

const getPayment = `-- name: GetPayment
SELECT ` + paymentColumns + ` FROM payments
WHERE network_tx_id = $1`

func (r *PaymentRepo) GetPayment(ctx context.Context, networkTxID string) (models.Payment, error) {
	rows, _ := r.DB.Query(ctx, getPayment, networkTxID)
	p, err := pgx.CollectOneRow(rows, rowToPayment)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrPaymentNotFound
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

const findSyntheticPayment = `-- name: FindSyntheticPayment
SELECT ` + paymentColumns + ` FROM payments
WHERE synthetic_tx_id AND md5(raw_text) = md5($1)`

func (r *PaymentRepo) FindSynthetic(ctx context.Context, rawText string) (models.Payment, error) {
	rows, _ := r.DB.Query(ctx, findSyntheticPayment, rawText)
	p, err := pgx.CollectOneRow(rows, rowToPayment)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrPaymentNotFound
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

const completePayment = `-- name: CompletePayment
UPDATE payments SET
	result = $2,
	amount_credited = $3,
	bonus = $4,
	new_balance = $5,
	pending_total = $6
WHERE network_tx_id = $1`

func (r *PaymentRepo) Complete(ctx context.Context, p models.Payment) error {
	tag, err := r.DB.Exec(ctx, completePayment, p.NetworkTxID, p.Result, p.AmountCredited, p.Bonus, p.NewBalance, p.PendingTotal)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPaymentNotFound
	}
	return nil
}

func rowToPayment(row pgx.CollectableRow) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.NetworkTxID, &p.DepositID, &p.UserID, &p.Currency, &p.Amount, &p.RawText, &p.CreatedAt, &p.SyntheticTxID,
		&p.Result, &p.AmountCredited, &p.Bonus, &p.NewBalance, &p.PendingTotal,
	)
	return p, err
}
