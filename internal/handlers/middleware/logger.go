package middleware

import (
	"net/http"
	"time"

	"github.com/nkiryanov/shopledger/internal/handlers/accountctx"
)

type requestLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.status = statusCode
}

// LoggerMiddleware logs every request once it is served.
// Server errors go to Warn, everything else to Info.
// The account id is added when the request was authenticated.
func LoggerMiddleware(l requestLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, account := accountctx.Track(r.Context())
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(ctx))

			args := []any{
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", rec.status,
				"size", rec.size,
			}
			if id, ok := account(); ok {
				args = append(args, "account_id", id)
			}

			if rec.status >= http.StatusInternalServerError {
				l.Warn("request failed", args...)
				return
			}
			l.Info("request served", args...)
		})
	}
}
