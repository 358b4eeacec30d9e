package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/freshcart/freshcart/internal/logging"
	"github.com/freshcart/freshcart/internal/session"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const sessionContextKey ContextKey = "session"

// Gate wraps page handlers that require an authenticated session.
// Unauthenticated requests are redirected to the login page with the
// originally requested URL preserved as a next parameter.
type Gate struct {
	sessions session.Store
}

func NewGate(sessions session.Store) *Gate {
	return &Gate{sessions: sessions}
}

// RequireSession is the middleware enforcing "must have active session".
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := session.GetSessionID(r)
		if err != nil {
			redirectToLogin(w, r)
			return
		}

		sess, err := g.sessions.Get(r.Context(), sessionID)
		if err != nil {
			redirectToLogin(w, r)
			return
		}

		// Sliding expiry: activity keeps the session alive
		if err := g.sessions.Renew(r.Context(), sess.ID); err != nil {
			logging.GetLoggerFromContext(r.Context()).Warn("failed to renew session", "error", err.Error())
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/user/login?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SessionFromContext extracts the session placed by RequireSession
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	return sess, ok
}
