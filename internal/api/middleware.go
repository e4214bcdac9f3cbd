package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// CallerHeader carries the opaque caller identity issued by the auth layer
const CallerHeader = "X-User-ID"

type contextKey string

const callerKey contextKey = "callerID"

// CallerMiddleware stores the caller identity in the request context.
// A missing header means an anonymous caller, not an error.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callerID := strings.TrimSpace(r.Header.Get(CallerHeader))
		ctx := context.WithValue(r.Context(), callerKey, callerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerID returns the caller identity stored by CallerMiddleware
func CallerID(ctx context.Context) string {
	callerID, _ := ctx.Value(callerKey).(string)
	return callerID
}

// RateLimitMiddleware rejects callers that search faster than their bucket refills
func (h *APIHandler) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		callerID := CallerID(r.Context())
		if !h.limiter.Allow(callerID) {
			retry := h.limiter.RetryAfter(callerID)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "too many search requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
