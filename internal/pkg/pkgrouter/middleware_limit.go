package pkgrouter

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// RateLimit allows rps requests per second with bursts of burst across all
// clients of the route. A non-positive rps disables it.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	retryAfter := strconv.Itoa(max(1, int(1/rps)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.WarnContext(r.Context(), "rate limit exceeded",
					"method", r.Method,
					"route", matchedRoutePath(r),
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("Retry-After", retryAfter)
				writeJSON(w, errorResponse{Message: "too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps the request body at n bytes. Reads past the cap fail with
// *http.MaxBytesError.
func MaxBody(n int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
