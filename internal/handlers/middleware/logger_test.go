package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
)

type logEntry struct {
	level string
	msg   string
	attrs map[string]any
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, args []any) {
	attrs := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		attrs[args[i].(string)] = args[i+1]
	}
	l.entries = append(l.entries, logEntry{level: level, msg: msg, attrs: attrs})
}

func (l *recordingLogger) Info(msg string, args ...any) { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any) { l.record("warn", msg, args) }

func serveLogged(t *testing.T, h http.HandlerFunc) (*recordingLogger, *http.Response, string) {
	t.Helper()

	l := &recordingLogger{}
	srv := httptest.NewServer(LoggerMiddleware(l)(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/balance?x=1")
	require.NoError(t, err, "should make request to test server")
	defer resp.Body.Close() // nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")

	return l, resp, string(body)
}

func TestLoggerMiddleware(t *testing.T) {
	t.Run("anonymous request", func(t *testing.T) {
		l, resp, body := serveLogged(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, err := w.Write([]byte("hi"))
			require.NoError(t, err, "should write response")
		})

		require.Equal(t, http.StatusTeapot, resp.StatusCode)
		require.Equal(t, "hi", body)

		require.Len(t, l.entries, 1, "one entry per request")
		e := l.entries[0]
		require.Equal(t, "info", e.level)
		require.Equal(t, "request served", e.msg)
		require.Equal(t, "GET", e.attrs["method"])
		require.Equal(t, "/api/balance?x=1", e.attrs["uri"])
		require.NotEmpty(t, e.attrs["duration"])
		require.Equal(t, http.StatusTeapot, e.attrs["status"])
		require.Equal(t, 2, e.attrs["size"], "size is the length of 'hi'")
		require.NotContains(t, e.attrs, "account_id", "request had no account")
	})

	t.Run("default status is ok", func(t *testing.T) {
		l, resp, _ := serveLogged(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{}"))
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, l.entries, 1)
		require.Equal(t, http.StatusOK, l.entries[0].attrs["status"])
	})

	t.Run("authenticated request logs account", func(t *testing.T) {
		l, _, _ := serveLogged(t, func(w http.ResponseWriter, r *http.Request) {
			// auth runs inside and only passes the account down its own chain
			ctx := accountctx.New(r.Context(), 4242)
			id, ok := accountctx.FromContext(ctx)
			require.True(t, ok)
			require.Equal(t, int64(4242), id)

			w.WriteHeader(http.StatusNoContent)
		})

		require.Len(t, l.entries, 1)
		require.Equal(t, int64(4242), l.entries[0].attrs["account_id"])
		require.Equal(t, http.StatusNoContent, l.entries[0].attrs["status"])
	})

	t.Run("server error is a warning", func(t *testing.T) {
		l, resp, _ := serveLogged(t, func(w http.ResponseWriter, r *http.Request) {
			_ = accountctx.New(r.Context(), 7)
			http.Error(w, "db is gone", http.StatusServiceUnavailable)
		})

		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Len(t, l.entries, 1)
		e := l.entries[0]
		require.Equal(t, "warn", e.level)
		require.Equal(t, "request failed", e.msg)
		require.Equal(t, http.StatusServiceUnavailable, e.attrs["status"])
		require.Equal(t, int64(7), e.attrs["account_id"])
	})
}
