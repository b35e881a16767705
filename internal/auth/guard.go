package auth

import (
	"log/slog"
	"time"

	"github.com/01moynul/itemcatalog-golang/internal/session"
)

// Mode is the authentication mode a session is in.
type Mode int

const (
	Anonymous Mode = iota
	LocalAuthenticated
	OAuthAuthenticated
	Expired
)

func (m Mode) String() string {
	switch m {
	case LocalAuthenticated:
		return "local"
	case OAuthAuthenticated:
		return "oauth"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Messages flashed to the user when the guard turns a request away.
const (
	MsgLoginRequired = "You must log in to continue."
	MsgExpired       = "Session expired."
	MsgRefreshFailed = "Could not confirm valid user access."
)

// Guard decides whether a session may perform a protected action and keeps
// local sessions fresh with a sliding access token.
type Guard struct {
	tokens *TokenService
	ttl    time.Duration
}

func NewGuard(tokens *TokenService, ttl time.Duration) *Guard {
	return &Guard{tokens: tokens, ttl: ttl}
}

// TTL is the lifetime of the tokens issued to local sessions.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}

// ModeOf classifies st without changing it.
func (g *Guard) ModeOf(st *session.State) Mode {
	switch {
	case st.Email == "":
		return Anonymous
	case st.GoogleID != "":
		return OAuthAuthenticated
	case g.tokens.VerifyTimedToken(st.AccessToken):
		return LocalAuthenticated
	default:
		return Expired
	}
}

// RequireLogin returns true, with the message to show, when the session must
// log in again. A local session that passes has its token replaced with a
// fresh one carrying the full TTL. Google sessions are never expired here.
func (g *Guard) RequireLogin(st *session.State) (bool, string) {
	if st.Email == "" {
		return true, MsgLoginRequired
	}
	if st.GoogleID != "" {
		return false, ""
	}
	if !g.tokens.VerifyTimedToken(st.AccessToken) {
		slog.Info("Local session expired", "email", st.Email)
		st.Email = ""
		st.AccessToken = ""
		return true, MsgExpired
	}

	refreshed, err := g.tokens.IssueTimedToken(g.ttl)
	if err != nil {
		slog.Error("Failed to refresh session token", "email", st.Email, "error", err)
		st.Email = ""
		st.AccessToken = ""
		return true, MsgRefreshFailed
	}
	st.AccessToken = refreshed
	return false, ""
}

// LogIn moves st into the local mode for email.
func (g *Guard) LogIn(st *session.State, email string) error {
	token, err := g.tokens.IssueTimedToken(g.ttl)
	if err != nil {
		return err
	}
	st.Email = email
	st.AccessToken = token
	st.Credentials = ""
	st.GoogleID = ""
	return nil
}

// LogOut clears a local login. Google sessions are ended through Revoke.
func (g *Guard) LogOut(st *session.State) {
	st.Email = ""
	st.AccessToken = ""
}
