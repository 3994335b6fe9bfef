package oauth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"
)

// statusWriter records the status code the callback handler answered with.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// withMiddleware wraps the callback handler with redacting request logging
// and panic recovery. state is the value the authorization request carried.
func withMiddleware(logger *slog.Logger, state string, next http.Handler) http.Handler {
	return callbackLogging(logger, state, recoverCallback(logger, next))
}

// callbackLogging logs one line per request to the loopback server. The
// query holds the authorization code and state, so only their presence and
// whether the state matched are logged. The provider's error value is a
// fixed code such as access_denied and is logged as is.
func callbackLogging(logger *slog.Logger, state string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		q := r.URL.Query()
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
			"has_code", q.Has("code"),
			"state_ok", subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(state)) == 1,
		}
		if e := q.Get("error"); e != "" {
			attrs = append(attrs, "provider_error", e)
		}
		logger.Debug("oauth callback request", attrs...)
	})
}

func recoverCallback(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered in oauth callback",
					"panic", v,
					"path", r.URL.Path,
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
