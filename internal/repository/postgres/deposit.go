package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
)

type DepositRepo struct {
	DB DBTX
}

const depositColumns = `id, user_id, currency, amount_requested, status, network_tx_id, created_at, modified_at`

const createDeposit = `-- name: CreateDeposit
INSERT INTO deposits (id, user_id, currency, amount_requested, status, created_at, modified_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING ` + depositColumns

func (r *DepositRepo) CreateDeposit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) (models.Deposit, error) {
	rows, _ := r.DB.Query(ctx, createDeposit, uuid.New(), userID, currency, amount, models.DepositWaitingPayment, time.Now())
	return collectDeposit(rows)
}

const getDeposit = `-- name: GetDeposit
SELECT ` + depositColumns + ` FROM deposits
WHERE id = $1`

func (r *DepositRepo) GetDeposit(ctx context.Context, depositID uuid.UUID, opts ...repository.LockOption) (models.Deposit, error) {
	rows, _ := r.DB.Query(ctx, getDeposit+forUpdate(opts), depositID)
	return collectDeposit(rows)
}

const listOpenDeposits = `-- name: ListOpenDeposits
SELECT ` + depositColumns + ` FROM deposits
WHERE user_id = $1 AND status IN ('WAITING_PAYMENT', 'PENDING_MINIMUM')
ORDER BY created_at DESC, id DESC
LIMIT $2`

func (r *DepositRepo) ListOpen(ctx context.Context, userID uuid.UUID, limit int) ([]models.Deposit, error) {
	rows, _ := r.DB.Query(ctx, listOpenDeposits, userID, limit)
	deposits, err := pgx.CollectRows(rows, rowToDeposit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deposits, nil
}

const listUserDeposits = `-- name: ListUserDeposits
SELECT ` + depositColumns + ` FROM deposits
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`

func (r *DepositRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Deposit, error) {
	rows, _ := r.DB.Query(ctx, listUserDeposits, userID)
	deposits, err := pgx.CollectRows(rows, rowToDeposit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deposits, nil
}

// The first bound network tx id is never overwritten
// Completed deposits are never touched
const transitionDeposit = `-- name: TransitionDeposit
UPDATE deposits SET
	network_tx_id = COALESCE(network_tx_id, $2),
	status = $3,
	modified_at = $4
WHERE id = $1 AND status <> 'COMPLETED'
RETURNING ` + depositColumns

func (r *DepositRepo) Transition(ctx context.Context, depositID uuid.UUID, networkTxID string, status string) (models.Deposit, error) {
	rows, _ := r.DB.Query(ctx, transitionDeposit, depositID, networkTxID, status, time.Now())
	d, err := pgx.CollectOneRow(rows, rowToDeposit)

	switch {
	case err == nil:
		return d, nil
	case errors.Is(err, pgx.ErrNoRows):
		return d, apperrors.ErrDepositCompleted
	default:
		return d, fmt.Errorf("db error: %w", err)
	}
}

func collectDeposit(rows pgx.Rows) (models.Deposit, error) {
	d, err := pgx.CollectOneRow(rows, rowToDeposit)

	switch {
	case err == nil:
		return d, nil
	case errors.Is(err, pgx.ErrNoRows):
		return d, apperrors.ErrDepositNotFound
	default:
		return d, fmt.Errorf("db error: %w", err)
	}
}

func rowToDeposit(row pgx.CollectableRow) (models.Deposit, error) {
	var d models.Deposit
	err := row.Scan(&d.ID, &d.UserID, &d.Currency, &d.AmountRequested, &d.Status, &d.NetworkTxID, &d.CreatedAt, &d.ModifiedAt)
	return d, err
}
