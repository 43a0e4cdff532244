package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const ensureAccount = `-- name: EnsureAccount
INSERT INTO accounts (id)
VALUES ($1)
ON CONFLICT (id) DO NOTHING
`

func (r *AccountRepo) EnsureAccount(ctx context.Context, accountID int64) error {
	_, err := r.DB.Exec(ctx, ensureAccount, accountID)
	if err != nil {
		return dbError(err)
	}
	return nil
}

const getAccount = `-- name: GetAccount
SELECT id, balance, orders_count, created_at FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, accountID int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, accountID)
	return collectAccount(rows)
}

const lockAccount = `-- name: LockAccount
SELECT id, balance, orders_count, created_at FROM accounts
WHERE id = $1
FOR UPDATE
`

func (r *AccountRepo) LockAccount(ctx context.Context, accountID int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, lockAccount, accountID)
	return collectAccount(rows)
}

const applyDelta = `-- name: ApplyDelta
UPDATE accounts
SET balance = balance + $2, orders_count = orders_count + $3
WHERE id = $1
RETURNING id, balance, orders_count, created_at
`

func (r *AccountRepo) ApplyDelta(ctx context.Context, accountID int64, balanceDelta decimal.Decimal, ordersDelta int) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, applyDelta, accountID, balanceDelta, ordersDelta)
	account, err := collectAccount(rows)

	var pgErr *pgconn.PgError

	switch {
	case isConstraintViolation(err, pgerrcode.CheckViolation, "accounts_balance_non_negative"):
		return account, apperrors.ErrBalanceInsufficient
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange:
		// balance column is NUMERIC(12, 2)
		return account, apperrors.ErrBalanceLimitExceeded
	default:
		return account, err
	}
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	case isConstraintViolation(err, pgerrcode.CheckViolation, "accounts_balance_non_negative"):
		return account, err
	default:
		return account, dbError(err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Balance, &a.OrdersCount, &a.CreatedAt)
	return a, err
}
