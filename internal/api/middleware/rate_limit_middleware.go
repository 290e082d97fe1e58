package middleware

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/cartstore/internal/api/response"
	"github.com/RoyceAzure/lab/cartstore/internal/ratelimit"
	"github.com/RoyceAzure/lab/cartstore/internal/util"
)

// RateLimitMiddleware keys the limiter by the client's session. Requests that
// arrive without one are keyed by client address, so dropping the cookie does
// not buy a fresh bucket. Run it after middleware.RealIP.
func RateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), limitKey(r)) {
				response.ErrorJSON(w, http.StatusTooManyRequests, response.CodeTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) string {
	sessionID := util.GetSessionIDFromContext(r.Context())
	if sessionID == "" || util.IsSessionIssued(r.Context()) {
		return "ip:" + clientAddr(r.RemoteAddr)
	}
	return "session:" + sessionID
}

// clientAddr drops the port, every connection from one host shares a bucket.
func clientAddr(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
