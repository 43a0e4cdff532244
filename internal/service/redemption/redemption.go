package redemption

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/logger"
	"github.com/nkiryanov/shopledger/internal/models"
	"github.com/nkiryanov/shopledger/internal/repository"
	"github.com/nkiryanov/shopledger/internal/service/validate"
)

// Engine credits account balance for promo codes
//
// Every redemption is one transaction that locks the promo code row first and the account row second.
// Purchases never lock promo codes, so this order can't form a cycle with them.
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
		logger:  l.WithGroup("redemption"),
	}
}

// Redeem credits the promo amount to the account
//
// Business failures: apperrors.ErrPromoInvalid (unknown, inactive or exhausted code),
// apperrors.ErrPromoAlreadyRedeemed, apperrors.ErrAccountNotFound.
// apperrors.ErrConcurrencyConflict means nothing was applied and the call may be retried.
func (e *Engine) Redeem(ctx context.Context, accountID int64, rawCode string) (models.Redemption, error) {
	l := e.logger.With("account_id", accountID, "code", rawCode)
	l.Debug("started")

	code, err := validate.PromoCode(rawCode)
	if err != nil {
		l.Debug("aborted", "reason", err)
		return models.Redemption{}, apperrors.ErrPromoInvalid
	}

	err = e.storage.Account().EnsureAccount(ctx, accountID)
	if err != nil {
		logAborted(l, err)
		return models.Redemption{}, err
	}

	var redemption models.Redemption

	err = e.storage.InTx(ctx, func(tx repository.Storage) error {
		promo, err := tx.Promo().LockPromo(ctx, code)
		if err != nil {
			return err
		}

		// Checked under the promo lock: concurrent redemptions of the code are serialized here.
		// An account that spent the last use of a code still sees it as already redeemed.
		redeemed, err := tx.Promo().RedemptionExists(ctx, accountID, promo.Code)
		if err != nil {
			return err
		}
		if redeemed {
			return apperrors.ErrPromoAlreadyRedeemed
		}
		if !promo.Active || promo.UsesRemaining <= 0 {
			return apperrors.ErrPromoInvalid
		}

		// Not needed for validation, serializes with purchases of the same account
		_, err = tx.Account().LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		l.Debug("validated", "amount", promo.Amount, "uses_remaining", promo.UsesRemaining)

		redemption, err = tx.Promo().CreateRedemption(ctx, models.Redemption{
			AccountID: accountID,
			Code:      promo.Code,
			Amount:    promo.Amount,
		})
		if errors.Is(err, apperrors.ErrPromoAlreadyRedeemed) {
			l.Error("redemption uniqueness constraint fired after check passed", "error", err)
			return err
		}
		if err != nil {
			return err
		}

		_, err = tx.Promo().ConsumeUse(ctx, promo.Code)
		if err != nil {
			return err
		}

		_, err = tx.Account().ApplyDelta(ctx, accountID, promo.Amount, 0)
		return err
	})

	if err != nil {
		logAborted(l, err)
		return models.Redemption{}, err
	}

	l.Info("committed", "redemption_id", redemption.ID, "amount", redemption.Amount)
	return redemption, nil
}

// UpsertPromo creates promo code or replaces amount and uses of the existing one
// The code becomes active again even if it was exhausted
func (e *Engine) UpsertPromo(ctx context.Context, rawCode string, amount decimal.Decimal, uses int) (models.PromoCode, error) {
	code, err := validate.PromoCode(rawCode)
	if err != nil {
		return models.PromoCode{}, fmt.Errorf("%w: %w", apperrors.ErrPromoParamsInvalid, err)
	}
	if !amount.IsPositive() {
		return models.PromoCode{}, fmt.Errorf("%w: amount must be positive", apperrors.ErrPromoParamsInvalid)
	}
	if uses < 1 {
		return models.PromoCode{}, fmt.Errorf("%w: uses must be at least 1", apperrors.ErrPromoParamsInvalid)
	}

	promo, err := e.storage.Promo().UpsertPromo(ctx, models.PromoCode{
		Code:          code,
		Amount:        amount,
		UsesRemaining: uses,
		Active:        true,
	})
	if err != nil {
		e.logger.Error("promo upsert failed", "code", code, "error", err)
		return promo, err
	}

	e.logger.Info("promo saved", "code", promo.Code, "amount", promo.Amount, "uses", promo.UsesRemaining)
	return promo, nil
}

func logAborted(l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrPromoInvalid),
		errors.Is(err, apperrors.ErrPromoAlreadyRedeemed),
		errors.Is(err, apperrors.ErrBalanceLimitExceeded),
		errors.Is(err, apperrors.ErrAccountNotFound):
		l.Debug("aborted", "reason", err)
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		l.Warn("aborted", "reason", err)
	default:
		l.Error("aborted", "error", err)
	}
}
