package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionCookie_SetAndClear(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "abc123", true, time.Hour)

	c := cookieByName(t, rec, SessionCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "abc123", c.Value)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec)
	c = cookieByName(t, rec, SessionCookieName)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
}

func TestSessionCookie_NotSecureInDev(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "abc123", false, time.Hour)

	c := cookieByName(t, rec, SessionCookieName)
	require.NotNil(t, c)
	assert.False(t, c.Secure)
}

func TestGetSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc123"})

	id, err := GetSessionID(req)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = GetSessionID(req)
	assert.Error(t, err)
}

func TestRememberCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetRememberCookie(rec, "alice", 7*24*time.Hour)

	c := cookieByName(t, rec, RememberCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "alice", c.Value)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), c.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, "alice", RememberedUsername(req))

	rec = httptest.NewRecorder()
	ClearRememberCookie(rec)
	c = cookieByName(t, rec, RememberCookieName)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RememberedUsername(req))
}
