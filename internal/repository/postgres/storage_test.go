package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/repository"
	"github.com/nkiryanov/shopledger/internal/testutil"
)

func TestStorage_InTx(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := NewStorage(pg.Pool, WithLockTimeout(200*time.Millisecond))

	t.Run("commit on success", func(t *testing.T) {
		accountID := testutil.RandomAccountID()

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			return s.Account().EnsureAccount(t.Context(), accountID)
		})
		require.NoError(t, err)

		_, err = storage.Account().GetAccount(t.Context(), accountID)
		require.NoError(t, err, "account should be visible after commit")
	})

	t.Run("rollback on error", func(t *testing.T) {
		accountID := testutil.RandomAccountID()
		errBoom := errors.New("boom")

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			if err := s.Account().EnsureAccount(t.Context(), accountID); err != nil {
				return err
			}
			return errBoom
		})
		require.ErrorIs(t, err, errBoom, "fn error must be returned as is")

		_, err = storage.Account().GetAccount(t.Context(), accountID)
		require.ErrorIs(t, err, apperrors.ErrAccountNotFound, "nothing should be committed")
	})

	t.Run("rollback on panic", func(t *testing.T) {
		accountID := testutil.RandomAccountID()

		require.PanicsWithValue(t, "boom", func() {
			_ = storage.InTx(t.Context(), func(s repository.Storage) error {
				if err := s.Account().EnsureAccount(t.Context(), accountID); err != nil {
					return err
				}
				panic("boom")
			})
		}, "panic must reach the caller")

		_, err := storage.Account().GetAccount(t.Context(), accountID)
		require.ErrorIs(t, err, apperrors.ErrAccountNotFound, "nothing should be committed")
	})

	t.Run("lock wait timeout is a conflict", func(t *testing.T) {
		accountID := testutil.RandomAccountID()
		require.NoError(t, storage.Account().EnsureAccount(t.Context(), accountID))

		locked := make(chan struct{})
		release := make(chan struct{})
		holderDone := make(chan error, 1)

		go func() {
			holderDone <- storage.InTx(t.Context(), func(s repository.Storage) error {
				if _, err := s.Account().LockAccount(t.Context(), accountID); err != nil {
					close(locked)
					return err
				}
				close(locked)
				<-release
				return nil
			})
		}()
		<-locked

		err := storage.InTx(t.Context(), func(s repository.Storage) error {
			_, err := s.Account().ApplyDelta(t.Context(), accountID, decimal.NewFromInt(1), 0)
			return err
		})
		close(release)

		require.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
		require.NoError(t, <-holderDone)

		account, err := storage.Account().GetAccount(t.Context(), accountID)
		require.NoError(t, err)
		require.True(t, account.Balance.IsZero(), "timed out update must not be applied")
	})
}
