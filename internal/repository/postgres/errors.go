package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/shopledger/internal/apperrors"
)

// Map driver error to application error
// Errors that are safe to retry are reported as apperrors.ErrConcurrencyConflict
func dbError(err error) error {
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &pgErr) && isRetryable(pgErr.Code):
		return fmt.Errorf("%w: %s (%s)", apperrors.ErrConcurrencyConflict, pgErr.Message, pgErr.Code)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", apperrors.ErrConcurrencyConflict, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func isRetryable(code string) bool {
	switch code {
	case pgerrcode.LockNotAvailable,
		pgerrcode.DeadlockDetected,
		pgerrcode.SerializationFailure,
		pgerrcode.QueryCanceled:
		return true
	default:
		return false
	}
}

func isConstraintViolation(err error, code string, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code && pgErr.ConstraintName == constraint
}
