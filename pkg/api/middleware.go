package api

import (
	"context"
	"net"
	"net/http"

	"github.com/tegfinance/authcore/pkg/session"
)

type contextKey string

const sessionContextKey contextKey = "authcore.session"

// SessionFromContext returns the session placed by RequireSession. It is
// only valid inside handlers mounted behind that middleware.
func SessionFromContext(ctx context.Context) session.Session {
	s, _ := ctx.Value(sessionContextKey).(session.Session)
	return s
}

// RequireSession resolves the session cookie and rejects the request
// when no live session backs it.
func (h *Handle) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.cookie.Name)
		if err != nil || cookie.Value == "" {
			renderError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		s, err := h.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			h.clearSessionCookie(w)
			renderError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP extracts the peer address without the port. The service is
// expected to terminate TLS itself; forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
