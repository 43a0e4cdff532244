package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/shopledger/internal/models"
)

type AccountRepo interface {
	// Create zero balance account if it does not exist yet
	// Safe for concurrent first touch, never changes an existing account
	EnsureAccount(ctx context.Context, accountID int64) error

	// Unlocked read
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, accountID int64) (models.Account, error)

	// Read and exclusively lock the account row until the transaction ends
	// Must be called inside transaction
	// If account not found must return apperrors.ErrAccountNotFound
	LockAccount(ctx context.Context, accountID int64) (models.Account, error)

	// Apply balance and orders deltas in one statement and return updated account
	// If balance would become negative must return apperrors.ErrBalanceInsufficient
	ApplyDelta(ctx context.Context, accountID int64, balanceDelta decimal.Decimal, ordersDelta int) (models.Account, error)
}

type CatalogRepo interface {
	// Read active item and hold a share lock on it until the transaction ends
	// Price can't change under the caller while the lock is held
	// If item not found or inactive must return apperrors.ErrItemUnavailable
	LockActiveItem(ctx context.Context, code string) (models.CatalogItem, error)

	// Active items ordered by code
	ListActiveItems(ctx context.Context) ([]models.CatalogItem, error)

	// Catalog management hook, not used by the engines
	UpsertItem(ctx context.Context, item models.CatalogItem) (models.CatalogItem, error)
}

type PromoRepo interface {
	// Read and exclusively lock the promo code, code is matched case-insensitively
	// If code not found must return apperrors.ErrPromoInvalid
	LockPromo(ctx context.Context, code string) (models.PromoCode, error)

	// Whether the account already redeemed the code (canonical casing)
	RedemptionExists(ctx context.Context, accountID int64, code string) (bool, error)

	// Insert redemption record
	// If the record for (account, code) exists must return apperrors.ErrPromoAlreadyRedeemed
	CreateRedemption(ctx context.Context, r models.Redemption) (models.Redemption, error)

	// Decrement uses remaining, deactivate the code when it reaches zero
	ConsumeUse(ctx context.Context, code string) (models.PromoCode, error)

	// Create promo code or replace amount, uses and active flag of the existing one
	// Existing code keeps its canonical casing
	UpsertPromo(ctx context.Context, p models.PromoCode) (models.PromoCode, error)
}

type PurchaseRepo interface {
	CreatePurchase(ctx context.Context, p models.Purchase) (models.Purchase, error)

	// Newest first
	ListPurchases(ctx context.Context, accountID int64, limit int) ([]models.Purchase, error)
}

type Storage interface {
	Account() AccountRepo
	Catalog() CatalogRepo
	Promo() PromoRepo
	Purchase() PurchaseRepo

	// Run fn in one transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
