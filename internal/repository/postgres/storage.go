package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/paysms/internal/repository"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Deposit() repository.DepositRepo {
	return &DepositRepo{DB: s.db}
}

func (s *Storage) Payment() repository.PaymentRepo {
	return &PaymentRepo{DB: s.db}
}

func (s *Storage) Claim() repository.ClaimRepo {
	return &ClaimRepo{DB: s.db}
}

// InTx begins a transaction (a savepoint when already inside one)
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("db commit error: %w", err)
			}
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}

func forUpdate(opts []repository.LockOption) string {
	if repository.BuildLockOptions(opts...).ForUpdate {
		return " FOR UPDATE"
	}
	return ""
}
