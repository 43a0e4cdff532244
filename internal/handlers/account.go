package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
	"github.com/nkiryanov/shopledger/internal/handlers/render"
	"github.com/nkiryanov/shopledger/internal/logger"
)

func handleAccount(accountService accountService, l logger.Logger) http.Handler {
	type response struct {
		Balance     string `json:"balance"`
		OrdersCount int    `json:"orders_count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		account, err := accountService.GetSnapshot(r.Context(), accountID)

		switch {
		case err == nil:
			render.JSON(w, response{
				Balance:     account.Balance.StringFixed(2),
				OrdersCount: account.OrdersCount,
			})
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		default:
			l.Error("Failed to get account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCatalog(catalogService catalogService, l logger.Logger) http.Handler {
	type item struct {
		Code  string `json:"code"`
		Title string `json:"title"`
		Price string `json:"price"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, err := catalogService.ListActive(r.Context())
		if err != nil {
			l.Error("Failed to list catalog", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]item, 0, len(items))
		for _, it := range items {
			resp = append(resp, item{Code: it.Code, Title: it.Title, Price: it.Price.StringFixed(2)})
		}
		render.JSON(w, resp)
	})
}
