package middleware

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/cartstore/internal/constants"
	"github.com/RoyceAzure/lab/cartstore/internal/util"
	"github.com/google/uuid"
)

// SessionMiddleware resolves the cart session from the X-Session-ID header or
// the cart_session cookie, issuing a new one when neither is usable. The id
// is echoed in both so browsers and API clients keep it.
func SessionMiddleware(ttl time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(constants.SessionIDHeader)
			if !validSessionID(sessionID) {
				sessionID = ""
				if c, err := r.Cookie(constants.SessionCookieName); err == nil && validSessionID(c.Value) {
					sessionID = c.Value
				}
			}
			ctx := r.Context()
			if sessionID == "" {
				sessionID = uuid.NewString()
				ctx = util.WithSessionIssued(ctx)
			}

			w.Header().Set(constants.SessionIDHeader, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     constants.SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(util.WithSessionID(ctx, sessionID)))
		})
	}
}

func validSessionID(id string) bool {
	if id == "" || len(id) > constants.MaxSessionIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func sessionIDFromResponse(w http.ResponseWriter, r *http.Request) string {
	if id := util.GetSessionIDFromContext(r.Context()); id != "" {
		return id
	}
	if id := w.Header().Get(constants.SessionIDHeader); id != "" {
		return id
	}
	return "unknown"
}
