package appMiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
)

// RateLimitByIP allows requestsPerMinute requests per client IP and answers
// the rest with a JSON 429. A non-positive limit disables the check.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many requests, slow down.")
		}),
	)
}

// Instrument wraps the whole router in an otelhttp server span.
func Instrument(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}

// Standard returns the server-wide middleware stack in the order it is applied.
func Standard(timeout time.Duration, requestLogger func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Timeout(timeout),
		middleware.Compress(5, "application/json"),
	}
}
