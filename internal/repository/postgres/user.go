package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, phone_number, balance_cup, balance_saldo, balance_usdt,
	pending_balance_cup, first_dep_cup, first_dep_saldo, first_dep_usdt`

const createUser = `-- name: CreateUser
INSERT INTO users (id, created_at, phone_number)
VALUES ($1, $2, $3)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, phone string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), time.Now(), phone)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUser = `-- name: GetUser
SELECT ` + userColumns + ` FROM users
WHERE id = $1`

func (r *UserRepo) GetUser(ctx context.Context, userID uuid.UUID, opts ...repository.LockOption) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUser+forUpdate(opts), userID)
	return collectUser(rows)
}

// Substring match in both directions since the network reports phones
// with and without the country code
const findUserByPhone = `-- name: FindUserByPhone
SELECT ` + userColumns + ` FROM users
WHERE phone_number <> ''
	AND (position($1 in phone_number) > 0 OR position(phone_number in $1) > 0)
ORDER BY created_at, id
LIMIT 1`

func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	if phone == "" {
		return models.User{}, apperrors.ErrUserNotFound
	}

	rows, _ := r.DB.Query(ctx, findUserByPhone, phone)
	return collectUser(rows)
}

const updateBalances = `-- name: UpdateBalances
UPDATE users SET
	balance_cup = $2,
	balance_saldo = $3,
	balance_usdt = $4,
	pending_balance_cup = $5,
	first_dep_cup = $6,
	first_dep_saldo = $7,
	first_dep_usdt = $8
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateBalances(ctx context.Context, u models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateBalances,
		u.ID,
		u.BalanceCup, u.BalanceSaldo, u.BalanceUsdt,
		u.PendingBalanceCup,
		u.FirstDepCup, u.FirstDepSaldo, u.FirstDepUsdt,
	)
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.PhoneNumber,
		&u.BalanceCup, &u.BalanceSaldo, &u.BalanceUsdt,
		&u.PendingBalanceCup,
		&u.FirstDepCup, &u.FirstDepSaldo, &u.FirstDepUsdt,
	)
	return u, err
}
