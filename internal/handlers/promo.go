package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/shopledger/internal/apperrors"
	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
	"github.com/nkiryanov/shopledger/internal/handlers/render"
	"github.com/nkiryanov/shopledger/internal/logger"
	validatesvc "github.com/nkiryanov/shopledger/internal/service/validate"
)

type redemptionResponse struct {
	Code     string `json:"code"`
	Credited string `json:"credited"`
}

func handleRedeem(redemptionService redemptionService, l logger.Logger) http.Handler {
	type request struct {
		Code string `json:"code" validate:"required"`
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

		redemption, err := redemptionService.Redeem(r.Context(), accountID, data.Code)
		if err != nil {
			renderRedeemError(w, err, l)
			return
		}

		render.JSON(w, redemptionResponse{Code: redemption.Code, Credited: redemption.Amount.StringFixed(2)})
	})
}

func handleAwaitPromo(promoInput promoInputService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		err := promoInput.Await(r.Context(), accountID)
		if err != nil {
			l.Error("Failed to await promo code", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

// Free text message from the chat
// If the account was asked for a promo code the text is redeemed, otherwise it's left unhandled
func handleMessage(promoInput promoInputService, l logger.Logger) http.Handler {
	type request struct {
		Text string `json:"text"`
	}
	type response struct {
		Handled bool `json:"handled"`
		*redemptionResponse
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

		handled, redemption, err := promoInput.HandleText(r.Context(), accountID, data.Text)

		switch {
		case err != nil && handled:
			renderRedeemError(w, err, l)
		case err != nil:
			l.Error("Failed to handle message", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		case !handled:
			render.JSON(w, response{Handled: false})
		default:
			render.JSON(w, response{
				Handled:            true,
				redemptionResponse: &redemptionResponse{Code: redemption.Code, Credited: redemption.Amount.StringFixed(2)},
			})
		}
	})
}

func handleUpsertPromo(redemptionService redemptionService, l logger.Logger) http.Handler {
	type request struct {
		Code   string `json:"code" validate:"required,promocode"`
		Amount string `json:"amount" validate:"required,amount"`
		Uses   int    `json:"uses" validate:"gte=1"`
	}
	type response struct {
		Code          string `json:"code"`
		Amount        string `json:"amount"`
		UsesRemaining int    `json:"uses_remaining"`
		Active        bool   `json:"active"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Already validated by 'amount' tag
		amount, _ := validatesvc.Amount(data.Amount)

		promo, err := redemptionService.UpsertPromo(r.Context(), data.Code, amount, data.Uses)

		switch {
		case err == nil:
			render.JSON(w, response{
				Code:          promo.Code,
				Amount:        promo.Amount.StringFixed(2),
				UsesRemaining: promo.UsesRemaining,
				Active:        promo.Active,
			})
		case errors.Is(err, apperrors.ErrPromoParamsInvalid):
			render.ServiceError(w, err.Error(), http.StatusBadRequest)
		default:
			l.Error("Failed to save promo code", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func renderRedeemError(w http.ResponseWriter, err error, l logger.Logger) {
	switch {
	case errors.Is(err, apperrors.ErrPromoInvalid):
		render.ServiceError(w, "Promo code is invalid or exhausted", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrPromoAlreadyRedeemed):
		render.ServiceError(w, "Promo code already redeemed", http.StatusConflict)
	case errors.Is(err, apperrors.ErrBalanceLimitExceeded):
		render.ServiceError(w, "Balance limit exceeded", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		retryLater(w)
	default:
		l.Error("Failed to redeem promo code", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
