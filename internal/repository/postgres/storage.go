package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/shopledger/internal/repository"
)

// Common interface for pgxpool.Pool, pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ repository.Storage = (*Storage)(nil)

type Option func(*Storage)

// Bound the time a transaction waits for a row lock
// Zero means wait forever (postgres default)
func WithLockTimeout(d time.Duration) Option {
	return func(s *Storage) {
		s.lockTimeout = d
	}
}

type Storage struct {
	db          DBTX
	lockTimeout time.Duration
}

func NewStorage(db DBTX, opts ...Option) *Storage {
	s := &Storage{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) Account() repository.AccountRepo {
	return &AccountRepo{DB: s.db}
}

func (s *Storage) Catalog() repository.CatalogRepo {
	return &CatalogRepo{DB: s.db}
}

func (s *Storage) Promo() repository.PromoRepo {
	return &PromoRepo{DB: s.db}
}

func (s *Storage) Purchase() repository.PurchaseRepo {
	return &PurchaseRepo{DB: s.db}
}

// Begin transaction (or savepoint if storage is already in transaction) and run fn with storage bound to it
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", dbError(err))
	}

	defer func() {
		// fn may have written part of its changes before panicking
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}

		switch err {
		case nil:
			if cerr := tx.Commit(ctx); cerr != nil {
				err = fmt.Errorf("db commit error: %w", dbError(cerr))
			}
		default:
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if s.lockTimeout > 0 {
		const setLockTimeout = `SELECT set_config('lock_timeout', $1, true)`
		_, err = tx.Exec(ctx, setLockTimeout, fmt.Sprintf("%dms", s.lockTimeout.Milliseconds()))
		if err != nil {
			return dbError(err)
		}
	}

	err = fn(&Storage{db: tx, lockTimeout: s.lockTimeout})

	return err
}
