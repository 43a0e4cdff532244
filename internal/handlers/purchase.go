package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
	"github.com/nkiryanov/shopledger/internal/handlers/render"
	"github.com/nkiryanov/shopledger/internal/logger"
	"github.com/nkiryanov/shopledger/internal/models"
)

type purchaseResponse struct {
	ItemCode    string    `json:"item_code"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	Payload     string    `json:"payload"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func newPurchaseResponse(p models.Purchase) purchaseResponse {
	return purchaseResponse{
		ItemCode:    p.ItemCode,
		Title:       p.Title,
		Price:       p.Price.StringFixed(2),
		Payload:     p.Payload,
		PurchasedAt: p.PurchasedAt,
	}
}

func handlePurchase(purchaseService purchaseService, l logger.Logger) http.Handler {
	type request struct {
		ItemCode string `json:"item_code" validate:"required,max=64"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		purchase, err := purchaseService.Purchase(r.Context(), accountID, data.ItemCode)

		var insufficient *apperrors.InsufficientBalanceError

		switch {
		case err == nil:
			render.JSON(w, newPurchaseResponse(purchase))
		case errors.Is(err, apperrors.ErrItemUnavailable):
			render.ServiceError(w, "Item unavailable", http.StatusNotFound)
		case errors.As(err, &insufficient):
			render.ServiceErrorWithFields(w, "Insufficient balance", map[string]string{
				"required":  insufficient.Required.StringFixed(2),
				"available": insufficient.Available.StringFixed(2),
			}, http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrConcurrencyConflict):
			retryLater(w)
		default:
			l.Error("Failed to purchase", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListPurchases(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			var err error
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
		}

		purchases, err := accountService.ListHistory(r.Context(), accountID, limit)
		if err != nil {
			l.Error("Failed to list purchases", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]purchaseResponse, 0, len(purchases))
		for _, p := range purchases {
			resp = append(resp, newPurchaseResponse(p))
		}
		render.JSON(w, resp)
	})
}

// Nothing was applied, the client may repeat the request
func retryLater(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	render.ServiceError(w, "Service busy, try again", http.StatusServiceUnavailable)
}
