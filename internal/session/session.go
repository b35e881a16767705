// Package session carries the per-request login state in a signed and
// encrypted cookie.
package session

import (
	"crypto/sha256"
	"encoding/gob"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the name of the session cookie.
const CookieName = "catalog_session"

const (
	keyEmail       = "email"
	keyAccessToken = "access_token"
	keyCredentials = "credentials"
	keyGoogleID    = "google_id"
	keyLoginState  = "state"
)

func init() {
	gob.Register(FlashMessage{})
}

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Type    string
	Message string
}

// State is the authentication state kept between requests. An empty field
// means the value is absent.
type State struct {
	Email       string
	AccessToken string // signed timed token of a local login
	Credentials string // provider access token of a Google login
	GoogleID    string
	LoginState  string // anti-forgery value issued with the login page
}

// Store creates and persists sessions.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore returns a cookie-backed store signed with key and encrypted
// with an AES-256 key derived from it.
func NewStore(key []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(key, blockKey(key))
	cs.Options.Path = "/"
	cs.Options.HttpOnly = true
	cs.Options.Secure = secure
	cs.Options.SameSite = http.SameSiteLaxMode
	cs.Options.MaxAge = 86400 * 7
	return &Store{cookies: cs}
}

// Session is the decoded session of one request.
type Session struct {
	State

	raw *sessions.Session
}

// Load decodes the request's session. A cookie that fails verification
// yields a fresh, empty session instead of an error.
func (s *Store) Load(r *http.Request) *Session {
	raw, err := s.cookies.Get(r, CookieName)
	if err != nil {
		raw, _ = s.cookies.New(r, CookieName)
		raw.IsNew = true
	}
	sess := &Session{raw: raw}
	sess.Email = stringValue(raw, keyEmail)
	sess.AccessToken = stringValue(raw, keyAccessToken)
	sess.Credentials = stringValue(raw, keyCredentials)
	sess.GoogleID = stringValue(raw, keyGoogleID)
	sess.LoginState = stringValue(raw, keyLoginState)
	return sess
}

// Save writes the current state back to the response cookie.
func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	setOrDelete(s.raw, keyEmail, s.Email)
	setOrDelete(s.raw, keyAccessToken, s.AccessToken)
	setOrDelete(s.raw, keyCredentials, s.Credentials)
	setOrDelete(s.raw, keyGoogleID, s.GoogleID)
	setOrDelete(s.raw, keyLoginState, s.LoginState)
	return s.raw.Save(r, w)
}

// AddFlash queues a message of the given type ("info", "success", "error").
func (s *Session) AddFlash(kind, message string) {
	s.raw.AddFlash(FlashMessage{Type: kind, Message: message})
}

// Flashes pops all queued messages.
func (s *Session) Flashes() []FlashMessage {
	var messages []FlashMessage
	for _, f := range s.raw.Flashes() {
		if fm, ok := f.(FlashMessage); ok {
			messages = append(messages, fm)
		}
	}
	return messages
}

func blockKey(key []byte) []byte {
	block := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte("catalog session encryption")), block); err != nil {
		panic(err)
	}
	return block
}

func stringValue(raw *sessions.Session, key string) string {
	v, _ := raw.Values[key].(string)
	return v
}

func setOrDelete(raw *sessions.Session, key, value string) {
	if value == "" {
		delete(raw.Values, key)
		return
	}
	raw.Values[key] = value
}
