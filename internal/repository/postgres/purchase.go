package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/models"
)

type PurchaseRepo struct {
	DB DBTX
}

const createPurchase = `-- name: CreatePurchase
INSERT INTO purchases (id, account_id, item_code, title, price, payload, purchased_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, account_id, item_code, title, price, payload, purchased_at
`

// Append purchase to the ledger
// ID and PurchasedAt are generated if not set
func (r *PurchaseRepo) CreatePurchase(ctx context.Context, p models.Purchase) (models.Purchase, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createPurchase, p.ID, p.AccountID, p.ItemCode, p.Title, p.Price, p.Payload, p.PurchasedAt)
	created, err := pgx.CollectOneRow(rows, rowToPurchase)

	switch {
	case err == nil:
		return created, nil
	case isConstraintViolation(err, pgerrcode.ForeignKeyViolation, "purchases_account_id_fkey"):
		return created, apperrors.ErrAccountNotFound
	case isConstraintViolation(err, pgerrcode.ForeignKeyViolation, "purchases_item_code_fkey"):
		return created, apperrors.ErrItemUnavailable
	default:
		return created, dbError(err)
	}
}

const listPurchases = `-- name: ListPurchases
SELECT id, account_id, item_code, title, price, payload, purchased_at FROM purchases
WHERE account_id = $1
ORDER BY purchased_at DESC, id
LIMIT $2
`

func (r *PurchaseRepo) ListPurchases(ctx context.Context, accountID int64, limit int) ([]models.Purchase, error) {
	rows, _ := r.DB.Query(ctx, listPurchases, accountID, limit)
	purchases, err := pgx.CollectRows(rows, rowToPurchase)
	if err != nil {
		return nil, dbError(err)
	}
	return purchases, nil
}

func rowToPurchase(row pgx.CollectableRow) (models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(&p.ID, &p.AccountID, &p.ItemCode, &p.Title, &p.Price, &p.Payload, &p.PurchasedAt)
	return p, err
}
