package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/repository"
	"github.com/nkiryanov/shopledger/internal/testutil"
)

func TestAccount(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			fn(innerTx, NewStorage(innerTx))
		})
	}

	t.Run("EnsureAccount", func(t *testing.T) {
		t.Run("create zero balance account", func(t *testing.T) {
			inTx(t, pg.Pool, func(_ pgx.Tx, storage repository.Storage) {
				err := storage.Account().EnsureAccount(t.Context(), 1001)
				require.NoError(t, err, "account has to be created ok")

				account, err := storage.Account().GetAccount(t.Context(), 1001)
				require.NoError(t, err)
				require.Equal(t, int64(1001), account.ID)
				require.True(t, account.Balance.IsZero(), "new account balance should be zero")
				require.Zero(t, account.OrdersCount, "new account has no orders")
				require.WithinDuration(t, time.Now(), account.CreatedAt, 5*time.Second)
			})
		})

		t.Run("second call keeps balance", func(t *testing.T) {
			inTx(t, pg.Pool, func(_ pgx.Tx, storage repository.Storage) {
				err := storage.Account().EnsureAccount(t.Context(), 1002)
				require.NoError(t, err)
				_, err = storage.Account().ApplyDelta(t.Context(), 1002, decimal.NewFromInt(15), 2)
				require.NoError(t, err)

				err = storage.Account().EnsureAccount(t.Context(), 1002)
				require.NoError(t, err, "ensure existing account should not fail")

				account, err := storage.Account().GetAccount(t.Context(), 1002)
				require.NoError(t, err)
				require.True(t, account.Balance.Equal(decimal.NewFromInt(15)), "balance must not be reset")
				require.Equal(t, 2, account.OrdersCount)
			})
		})
	})

	t.Run("GetAccount not found", func(t *testing.T) {
		inTx(t, pg.Pool, func(_ pgx.Tx, storage repository.Storage) {
			_, err := storage.Account().GetAccount(t.Context(), 99999)

			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("LockAccount", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			err := storage.Account().EnsureAccount(t.Context(), 1003)
			require.NoError(t, err)

			t.Run("lock existing", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					account, err := storage.Account().LockAccount(t.Context(), 1003)

					require.NoError(t, err)
					require.Equal(t, int64(1003), account.ID)
				})
			})

			t.Run("lock not existing", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.Account().LockAccount(t.Context(), 1004)

					require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
				})
			})
		})
	})

	t.Run("ApplyDelta", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			err := storage.Account().EnsureAccount(t.Context(), 1005)
			require.NoError(t, err)

			t.Run("credit", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					account, err := storage.Account().ApplyDelta(t.Context(), 1005, testutil.MustDecimal(t, "10.50"), 0)

					require.NoError(t, err)
					require.True(t, account.Balance.Equal(testutil.MustDecimal(t, "10.50")), "balance should be credited, got %s", account.Balance)
					require.Zero(t, account.OrdersCount)
				})
			})

			t.Run("debit and count order", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.Account().ApplyDelta(t.Context(), 1005, decimal.NewFromInt(100), 0)
					require.NoError(t, err)

					account, err := storage.Account().ApplyDelta(t.Context(), 1005, decimal.NewFromInt(-60), 1)

					require.NoError(t, err)
					require.True(t, account.Balance.Equal(decimal.NewFromInt(40)), "balance should be debited, got %s", account.Balance)
					require.Equal(t, 1, account.OrdersCount)
				})
			})

			t.Run("credit above column limit fails", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.Account().ApplyDelta(t.Context(), 1005, testutil.MustDecimal(t, "9999999999.99"), 0)
					require.NoError(t, err, "largest balance fits NUMERIC(12, 2)")

					_, err = storage.Account().ApplyDelta(t.Context(), 1005, testutil.MustDecimal(t, "0.01"), 0)

					require.ErrorIs(t, err, apperrors.ErrBalanceLimitExceeded)
				})
			})

			t.Run("debit below zero fails", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.Account().ApplyDelta(t.Context(), 1005, decimal.NewFromInt(-1), 1)

					require.ErrorIs(t, err, apperrors.ErrBalanceInsufficient)
				})
			})

			t.Run("not existing account", func(t *testing.T) {
				inTx(t, tx, func(_ pgx.Tx, storage repository.Storage) {
					_, err := storage.Account().ApplyDelta(t.Context(), 1006, decimal.NewFromInt(1), 0)

					require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
				})
			})
		})
	})
}
