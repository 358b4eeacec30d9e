package session

import (
	"net/http"
	"time"
)

const (
	// SessionCookieName carries the opaque session ID
	SessionCookieName = "sessionid"
	// RememberCookieName carries the remembered username hint. It is
	// independent of authentication state.
	RememberCookieName = "username"
)

// SetSessionCookie attaches the session cookie to the response
func SetSessionCookie(w http.ResponseWriter, sessionID string, isProduction bool, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetSessionID extracts the session ID from the request cookie
func GetSessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// SetRememberCookie stores the username hint used to pre-fill the login form
func SetRememberCookie(w http.ResponseWriter, username string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:   RememberCookieName,
		Value:  username,
		Path:   "/",
		MaxAge: int(ttl.Seconds()),
	})
}

// ClearRememberCookie removes any existing username hint
func ClearRememberCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   RememberCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// RememberedUsername returns the username hint, or "" when none is stored
func RememberedUsername(r *http.Request) string {
	cookie, err := r.Cookie(RememberCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
