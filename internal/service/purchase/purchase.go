package purchase

import (
	"context"
	"errors"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/logger"
	"github.com/nkiryanov/shopledger/internal/models"
	"github.com/nkiryanov/shopledger/internal/repository"
)

// Engine debits account balance for catalog items
//
// Every purchase is one transaction that locks the account row first and the item row second.
// Redemptions never lock items, so this order can't form a cycle with them.
type Engine struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewEngine(storage repository.Storage, l logger.Logger) *Engine {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Engine{
		storage: storage,
		logger:  l.WithGroup("purchase"),
	}
}

// Purchase buys one item for the account
//
// Returns the ledger record with the fulfillment payload on success.
// Business failures: apperrors.ErrItemUnavailable, *apperrors.InsufficientBalanceError, apperrors.ErrAccountNotFound.
// apperrors.ErrConcurrencyConflict means nothing was applied and the call may be retried.
func (e *Engine) Purchase(ctx context.Context, accountID int64, itemCode string) (models.Purchase, error) {
	l := e.logger.With("account_id", accountID, "item_code", itemCode)
	l.Debug("started")

	err := e.storage.Account().EnsureAccount(ctx, accountID)
	if err != nil {
		logAborted(l, err)
		return models.Purchase{}, err
	}

	var purchase models.Purchase

	err = e.storage.InTx(ctx, func(tx repository.Storage) error {
		account, err := tx.Account().LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		// Price is read under lock in the same transaction as the balance
		item, err := tx.Catalog().LockActiveItem(ctx, itemCode)
		if err != nil {
			return err
		}

		if account.Balance.LessThan(item.Price) {
			return &apperrors.InsufficientBalanceError{Required: item.Price, Available: account.Balance}
		}
		l.Debug("validated", "price", item.Price, "balance", account.Balance)

		_, err = tx.Account().ApplyDelta(ctx, accountID, item.Price.Neg(), 1)
		if err != nil {
			return err
		}

		purchase, err = tx.Purchase().CreatePurchase(ctx, models.Purchase{
			AccountID: accountID,
			ItemCode:  item.Code,
			Title:     item.Title,
			Price:     item.Price,
			Payload:   item.Payload,
		})
		return err
	})

	if err != nil {
		logAborted(l, err)
		return models.Purchase{}, err
	}

	l.Info("committed", "purchase_id", purchase.ID, "price", purchase.Price)
	return purchase, nil
}

func logAborted(l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrItemUnavailable),
		errors.Is(err, apperrors.ErrBalanceInsufficient),
		errors.Is(err, apperrors.ErrAccountNotFound):
		l.Debug("aborted", "reason", err)
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		l.Warn("aborted", "reason", err)
	default:
		l.Error("aborted", "error", err)
	}
}
