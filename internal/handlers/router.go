package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/shopledger/internal/handlers/middleware"
	"github.com/nkiryanov/shopledger/internal/logger"
	"github.com/nkiryanov/shopledger/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth       authService
	Account    accountService
	Catalog    catalogService
	Purchase   purchaseService
	Redemption redemptionService
	PromoInput promoInputService

	// Accounts allowed to manage promo codes
	AdminIDs []int64
}

func NewRouter(s Services, logger logger.Logger) http.Handler {
	withAccount := middleware.AuthMiddleware(s.Auth, s.Account, logger)
	withAdmin := func(h http.Handler) http.Handler {
		return chain(h, withAccount, middleware.AdminMiddleware(s.AdminIDs))
	}

	api := http.NewServeMux()

	api.Handle("GET /account", withAccount(handleAccount(s.Account, logger)))
	api.Handle("GET /catalog", withAccount(handleCatalog(s.Catalog, logger)))
	api.Handle("POST /purchases", withAccount(handlePurchase(s.Purchase, logger)))
	api.Handle("GET /purchases", withAccount(handleListPurchases(s.Account, logger)))
	api.Handle("POST /promo/redeem", withAccount(handleRedeem(s.Redemption, logger)))
	api.Handle("POST /promo/await", withAccount(handleAwaitPromo(s.PromoInput, logger)))
	api.Handle("POST /messages", withAccount(handleMessage(s.PromoInput, logger)))
	api.Handle("POST /admin/promos", withAdmin(handleUpsertPromo(s.Redemption, logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Get request and return account id if it authenticated or error
	AccountFromRequest(r *http.Request) (int64, error)
}

type accountService interface {
	EnsureAccount(ctx context.Context, accountID int64) error

	// Has to return apperrors.ErrAccountNotFound if account not found
	GetSnapshot(ctx context.Context, accountID int64) (models.Account, error)

	ListHistory(ctx context.Context, accountID int64, limit int) ([]models.Purchase, error)
}

type catalogService interface {
	ListActive(ctx context.Context) ([]models.CatalogItem, error)
}

type purchaseService interface {
	Purchase(ctx context.Context, accountID int64, itemCode string) (models.Purchase, error)
}

type redemptionService interface {
	Redeem(ctx context.Context, accountID int64, rawCode string) (models.Redemption, error)
	UpsertPromo(ctx context.Context, rawCode string, amount decimal.Decimal, uses int) (models.PromoCode, error)
}

type promoInputService interface {
	Await(ctx context.Context, accountID int64) error
	HandleText(ctx context.Context, accountID int64, text string) (bool, models.Redemption, error)
}
