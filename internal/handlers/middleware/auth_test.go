package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
)

// Allow to use a function as authenticator
type authFunc func(r *http.Request) (int64, error)

func (f authFunc) AccountFromRequest(r *http.Request) (int64, error) {
	return f(r)
}

// Allow to use a function as account ensurer
type ensureFunc func(ctx context.Context, accountID int64) error

func (f ensureFunc) EnsureAccount(ctx context.Context, accountID int64) error {
	return f(ctx, accountID)
}

type errorLoggerFunc func(string, ...any)

func (f errorLoggerFunc) Error(msg string, v ...any) { f(msg, v...) }

func TestAuthMiddleware(t *testing.T) {
	// Simple handler that try to get account from context
	// If ok write its id to response
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set account to context or write error to response
		accountID, ok := accountctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(strconv.FormatInt(accountID, 10)))
		require.NoError(t, err, "should write account id to response")
	})

	noLog := errorLoggerFunc(func(string, ...any) {})

	get := func(t *testing.T, h http.Handler) (int, string) {
		srv := httptest.NewServer(h)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp.StatusCode, string(body)
	}

	t.Run("auth ok", func(t *testing.T) {
		var ensured int64
		middleware := AuthMiddleware(
			authFunc(func(r *http.Request) (int64, error) { return 42, nil }),
			ensureFunc(func(_ context.Context, accountID int64) error { ensured = accountID; return nil }),
			noLog,
		)

		status, body := get(t, middleware(handler))

		require.Equalf(t, http.StatusOK, status, "should return status OK. Resp: %s", body)
		require.Equal(t, "42", body, "should return account id in response")
		require.Equal(t, int64(42), ensured, "account should be ensured before handler")
	})

	t.Run("auth fail", func(t *testing.T) {
		ensureCalled := false
		middleware := AuthMiddleware(
			authFunc(func(r *http.Request) (int64, error) { return 0, errors.New("go away") }),
			ensureFunc(func(context.Context, int64) error { ensureCalled = true; return nil }),
			noLog,
		)

		status, body := get(t, middleware(handler))

		require.False(t, ensureCalled, "unauthenticated request must not create account")
		require.Equalf(t, http.StatusUnauthorized, status, "should return status Unauthorized. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
	})

	t.Run("ensure fail", func(t *testing.T) {
		logged := 0
		middleware := AuthMiddleware(
			authFunc(func(r *http.Request) (int64, error) { return 42, nil }),
			ensureFunc(func(context.Context, int64) error { return errors.New("db is down") }),
			errorLoggerFunc(func(string, ...any) { logged++ }),
		)

		status, _ := get(t, middleware(handler))

		require.Equal(t, http.StatusInternalServerError, status)
		require.Equal(t, 1, logged, "failure should be logged")
	})
}

func TestAdminMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		ctx      func(context.Context) context.Context
		adminIDs []int64
		wantCode int
	}{
		{
			name:     "admin",
			ctx:      func(ctx context.Context) context.Context { return accountctx.New(ctx, 1) },
			adminIDs: []int64{5, 1},
			wantCode: http.StatusNoContent,
		},
		{
			name:     "not admin",
			ctx:      func(ctx context.Context) context.Context { return accountctx.New(ctx, 2) },
			adminIDs: []int64{1},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "no admins configured",
			ctx:      func(ctx context.Context) context.Context { return accountctx.New(ctx, 1) },
			adminIDs: nil,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "not authenticated",
			ctx:      func(ctx context.Context) context.Context { return ctx },
			adminIDs: []int64{1},
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/promos", nil)
			req = req.WithContext(tt.ctx(req.Context()))

			AdminMiddleware(tt.adminIDs)(handler).ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
