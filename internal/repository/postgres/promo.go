package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/models"
)

type PromoRepo struct {
	DB DBTX
}

const lockPromo = `-- name: LockPromo
SELECT code, amount, uses_remaining, is_active, created_at FROM promo_codes
WHERE lower(code) = lower($1)
FOR UPDATE
`

func (r *PromoRepo) LockPromo(ctx context.Context, code string) (models.PromoCode, error) {
	rows, _ := r.DB.Query(ctx, lockPromo, code)
	promo, err := pgx.CollectOneRow(rows, rowToPromo)

	switch {
	case err == nil:
		return promo, nil
	case errors.Is(err, pgx.ErrNoRows):
		return promo, apperrors.ErrPromoInvalid
	default:
		return promo, dbError(err)
	}
}

const redemptionExists = `-- name: RedemptionExists
SELECT EXISTS (
	SELECT 1 FROM redemptions
	WHERE account_id = $1 AND code = $2
)
`

func (r *PromoRepo) RedemptionExists(ctx context.Context, accountID int64, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, redemptionExists, accountID, code).Scan(&exists)
	if err != nil {
		return false, dbError(err)
	}
	return exists, nil
}

const createRedemption = `-- name: CreateRedemption
INSERT INTO redemptions (id, account_id, code, amount, redeemed_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, account_id, code, amount, redeemed_at
`

// Create redemption record
// ID and RedeemedAt are generated if not set
func (r *PromoRepo) CreateRedemption(ctx context.Context, rd models.Redemption) (models.Redemption, error) {
	if rd.ID == uuid.Nil {
		rd.ID = uuid.New()
	}
	if rd.RedeemedAt.IsZero() {
		rd.RedeemedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createRedemption, rd.ID, rd.AccountID, rd.Code, rd.Amount, rd.RedeemedAt)
	created, err := pgx.CollectOneRow(rows, rowToRedemption)

	switch {
	case err == nil:
		return created, nil
	case isConstraintViolation(err, pgerrcode.UniqueViolation, "redemptions_account_code_unique"):
		return created, apperrors.ErrPromoAlreadyRedeemed
	case isConstraintViolation(err, pgerrcode.ForeignKeyViolation, "redemptions_account_id_fkey"):
		return created, apperrors.ErrAccountNotFound
	case isConstraintViolation(err, pgerrcode.ForeignKeyViolation, "redemptions_code_fkey"):
		return created, apperrors.ErrPromoInvalid
	default:
		return created, dbError(err)
	}
}

const consumeUse = `-- name: ConsumeUse
UPDATE promo_codes
SET uses_remaining = uses_remaining - 1,
	is_active = is_active AND uses_remaining - 1 > 0
WHERE code = $1
RETURNING code, amount, uses_remaining, is_active, created_at
`

func (r *PromoRepo) ConsumeUse(ctx context.Context, code string) (models.PromoCode, error) {
	rows, _ := r.DB.Query(ctx, consumeUse, code)
	promo, err := pgx.CollectOneRow(rows, rowToPromo)

	switch {
	case err == nil:
		return promo, nil
	case errors.Is(err, pgx.ErrNoRows):
		return promo, apperrors.ErrPromoInvalid
	case isConstraintViolation(err, pgerrcode.CheckViolation, "promo_codes_uses_non_negative"):
		return promo, apperrors.ErrPromoInvalid
	default:
		return promo, dbError(err)
	}
}

const upsertPromo = `-- name: UpsertPromo
INSERT INTO promo_codes (code, amount, uses_remaining, is_active)
VALUES ($1, $2, $3, $4)
ON CONFLICT ((lower(code))) DO UPDATE
SET amount = EXCLUDED.amount,
	uses_remaining = EXCLUDED.uses_remaining,
	is_active = EXCLUDED.is_active
RETURNING code, amount, uses_remaining, is_active, created_at
`

func (r *PromoRepo) UpsertPromo(ctx context.Context, p models.PromoCode) (models.PromoCode, error) {
	rows, _ := r.DB.Query(ctx, upsertPromo, p.Code, p.Amount, p.UsesRemaining, p.Active)
	promo, err := pgx.CollectOneRow(rows, rowToPromo)

	switch {
	case err == nil:
		return promo, nil
	case isConstraintViolation(err, pgerrcode.CheckViolation, "promo_codes_amount_positive"),
		isConstraintViolation(err, pgerrcode.CheckViolation, "promo_codes_uses_non_negative"):
		return promo, apperrors.ErrPromoParamsInvalid
	default:
		return promo, dbError(err)
	}
}

func rowToPromo(row pgx.CollectableRow) (models.PromoCode, error) {
	var p models.PromoCode
	err := row.Scan(&p.Code, &p.Amount, &p.UsesRemaining, &p.Active, &p.CreatedAt)
	return p, err
}

func rowToRedemption(row pgx.CollectableRow) (models.Redemption, error) {
	var rd models.Redemption
	err := row.Scan(&rd.ID, &rd.AccountID, &rd.Code, &rd.Amount, &rd.RedeemedAt)
	return rd, err
}
