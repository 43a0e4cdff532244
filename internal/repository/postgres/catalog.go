package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/models"
)

type CatalogRepo struct {
	DB DBTX
}

// Share lock: concurrent buyers of the same item do not block each other,
// but the item can't be repriced or deactivated until they finish
const lockActiveItem = `-- name: LockActiveItem
SELECT code, title, price, payload, is_active FROM catalog_items
WHERE code = $1 AND is_active
FOR SHARE
`

func (r *CatalogRepo) LockActiveItem(ctx context.Context, code string) (models.CatalogItem, error) {
	rows, _ := r.DB.Query(ctx, lockActiveItem, code)
	item, err := pgx.CollectOneRow(rows, rowToCatalogItem)

	switch {
	case err == nil:
		return item, nil
	case errors.Is(err, pgx.ErrNoRows):
		return item, apperrors.ErrItemUnavailable
	default:
		return item, dbError(err)
	}
}

const listActiveItems = `-- name: ListActiveItems
SELECT code, title, price, payload, is_active FROM catalog_items
WHERE is_active
ORDER BY code
`

func (r *CatalogRepo) ListActiveItems(ctx context.Context) ([]models.CatalogItem, error) {
	rows, _ := r.DB.Query(ctx, listActiveItems)
	items, err := pgx.CollectRows(rows, rowToCatalogItem)
	if err != nil {
		return nil, dbError(err)
	}
	return items, nil
}

const upsertItem = `-- name: UpsertItem
INSERT INTO catalog_items (code, title, price, payload, is_active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (code) DO UPDATE
SET title = EXCLUDED.title,
	price = EXCLUDED.price,
	payload = EXCLUDED.payload,
	is_active = EXCLUDED.is_active
RETURNING code, title, price, payload, is_active
`

func (r *CatalogRepo) UpsertItem(ctx context.Context, item models.CatalogItem) (models.CatalogItem, error) {
	rows, _ := r.DB.Query(ctx, upsertItem, item.Code, item.Title, item.Price, item.Payload, item.Active)
	item, err := pgx.CollectOneRow(rows, rowToCatalogItem)
	if err != nil {
		return item, dbError(err)
	}
	return item, nil
}

func rowToCatalogItem(row pgx.CollectableRow) (models.CatalogItem, error) {
	var i models.CatalogItem
	err := row.Scan(&i.Code, &i.Title, &i.Price, &i.Payload, &i.Active)
	return i, err
}
