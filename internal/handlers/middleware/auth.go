package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
	"github.com/nkiryanov/shopledger/internal/handlers/render"
)

type authenticator interface {
	// Read account id from request or return error if request not authenticated
	AccountFromRequest(r *http.Request) (int64, error)
}

type accountEnsurer interface {
	EnsureAccount(ctx context.Context, accountID int64) error
}

type errorLogger interface {
	Error(msg string, args ...any)
}

// AuthMiddleware authenticates request and makes sure the account exists before the handler runs
// The account id is available with accountctx.FromContext
func AuthMiddleware(auth authenticator, accounts accountEnsurer, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := auth.AccountFromRequest(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			err = accounts.EnsureAccount(r.Context(), accountID)
			if err != nil {
				l.Error("Failed to ensure account", "account_id", accountID, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := accountctx.New(r.Context(), accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware lets through only listed accounts
// Has to be used after AuthMiddleware
func AdminMiddleware(adminIDs []int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, ok := accountctx.FromContext(r.Context())
			if !ok || !slices.Contains(adminIDs, accountID) {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
