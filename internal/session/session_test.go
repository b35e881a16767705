package session

import (
	"encoding/base64"
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, store *Store, cookies []*http.Cookie, mutate func(*Session)) (*Session, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()

	sess := store.Load(req)
	if mutate != nil {
		mutate(sess)
	}
	require.NoError(t, sess.Save(req, rec))
	return sess, rec.Result().Cookies()
}

func TestSession_PersistsState(t *testing.T) {
	store := NewStore([]byte("0123456789abcdef0123456789abcdef"), false)

	_, cookies := roundTrip(t, store, nil, func(s *Session) {
		s.Email = "user@example.com"
		s.AccessToken = "signed"
		s.LoginState = "abc"
	})
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	sess, cookies := roundTrip(t, store, cookies, func(s *Session) {
		s.AccessToken = ""
	})
	assert.Equal(t, "user@example.com", sess.Email)
	assert.Equal(t, "abc", sess.LoginState)

	sess, _ = roundTrip(t, store, cookies, nil)
	assert.Equal(t, "user@example.com", sess.Email)
	assert.Empty(t, sess.AccessToken)
}

func TestSession_FlashesAreOneShot(t *testing.T) {
	store := NewStore([]byte("0123456789abcdef0123456789abcdef"), false)

	_, cookies := roundTrip(t, store, nil, func(s *Session) {
		s.AddFlash("success", "Logged out successfully.")
	})

	var flashes []FlashMessage
	_, cookies = roundTrip(t, store, cookies, func(s *Session) {
		flashes = s.Flashes()
	})
	require.Len(t, flashes, 1)
	assert.Equal(t, FlashMessage{Type: "success", Message: "Logged out successfully."}, flashes[0])

	_, _ = roundTrip(t, store, cookies, func(s *Session) {
		assert.Empty(t, s.Flashes())
	})
}

func TestSession_TamperedCookieStartsFresh(t *testing.T) {
	store := NewStore([]byte("0123456789abcdef0123456789abcdef"), false)
	other := NewStore([]byte("fedcba9876543210fedcba9876543210"), false)

	_, cookies := roundTrip(t, other, nil, func(s *Session) {
		s.Email = "intruder@example.com"
	})

	sess, _ := roundTrip(t, store, cookies, nil)
	assert.Empty(t, sess.Email)
}

func TestSession_CookieIsEncrypted(t *testing.T) {
	store := NewStore([]byte("0123456789abcdef0123456789abcdef"), false)

	_, cookies := roundTrip(t, store, nil, func(s *Session) {
		s.Credentials = "ya29-provider-access-token"
	})
	require.Len(t, cookies, 1)

	outer, err := base64.URLEncoding.DecodeString(cookies[0].Value)
	require.NoError(t, err)
	parts := strings.SplitN(string(outer), "|", 3)
	require.Len(t, parts, 3)
	payload, err := base64.URLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "ya29-provider-access-token")

	sess, _ := roundTrip(t, store, cookies, nil)
	assert.Equal(t, "ya29-provider-access-token", sess.Credentials)
}

func TestBlockKey(t *testing.T) {
	a := blockKey([]byte("0123456789abcdef0123456789abcdef"))
	assert.Len(t, a, 32)
	assert.Equal(t, a, blockKey([]byte("0123456789abcdef0123456789abcdef")))
	assert.NotEqual(t, a, blockKey([]byte("fedcba9876543210fedcba9876543210")))
}
