package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/01moynul/itemcatalog-golang/internal/session"
)

// DefaultRevokeURL is Google's token revocation endpoint.
const DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// OAuthError is a sign-in or sign-out rejection with the HTTP status to
// answer with.
type OAuthError struct {
	Status  int
	Message string
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("oauth: %d %s", e.Status, e.Message)
}

func oauthErr(status int, message string) *OAuthError {
	return &OAuthError{Status: status, Message: message}
}

// GoogleOptions tune the bridge's outbound calls.
type GoogleOptions struct {
	Timeout     time.Duration // bound on every provider round-trip
	APIEndpoint string        // base URL for tokeninfo and userinfo, empty for Google's
	RevokeURL   string
}

// GoogleBridge turns a one-time authorization code posted by the sign-in
// button into a verified Google identity stored in the session.
type GoogleBridge struct {
	config      *oauth2.Config
	client      *http.Client
	apiEndpoint string
	revokeURL   string
}

// LoadGoogleBridge reads a client secret file downloaded from the Google
// console. A missing file returns an error wrapping os.ErrNotExist.
func LoadGoogleBridge(path string, opts GoogleOptions) (*GoogleBridge, error) {
	secret, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	return NewGoogleBridge(secret, opts)
}

// NewGoogleBridge builds a bridge from client secret JSON.
func NewGoogleBridge(secretJSON []byte, opts GoogleOptions) (*GoogleBridge, error) {
	cfg, err := google.ConfigFromJSON(secretJSON, "openid", "email")
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}
	// The sign-in button delivers the code through postMessage.
	cfg.RedirectURL = "postmessage"

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RevokeURL == "" {
		opts.RevokeURL = DefaultRevokeURL
	}
	return &GoogleBridge{
		config:      cfg,
		client:      &http.Client{Timeout: opts.Timeout},
		apiEndpoint: opts.APIEndpoint,
		revokeURL:   opts.RevokeURL,
	}, nil
}

// ClientID is the application's registered OAuth2 client id.
func (b *GoogleBridge) ClientID() string {
	return b.config.ClientID
}

// SignInResult describes a successful sign-in.
type SignInResult struct {
	AlreadyLoggedIn bool
	Email           string
}

// SignIn validates the posted state and authorization code and, on success,
// stores the Google identity in st. Failures are returned as *OAuthError
// and leave st unchanged.
func (b *GoogleBridge) SignIn(ctx context.Context, st *session.State, state, code string) (*SignInResult, error) {
	if st.LoginState == "" || state != st.LoginState {
		return nil, oauthErr(http.StatusUnauthorized, "Invalid state parameter.")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)

	tok, err := b.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		slog.Warn("Google code exchange failed", "error", err)
		return nil, oauthErr(http.StatusUnauthorized, "Failed to upgrade auth code.")
	}
	googleID, err := idTokenSubject(tok)
	if err != nil {
		slog.Warn("Google token response carried no usable id_token", "error", err)
		return nil, oauthErr(http.StatusUnauthorized, "Failed to upgrade auth code.")
	}

	info, err := b.tokenInfo(ctx, tok.AccessToken)
	if err != nil {
		return nil, oauthErr(http.StatusInternalServerError, providerMessage(err))
	}
	if info.UserId != googleID {
		return nil, oauthErr(http.StatusUnauthorized, "Mismatched token and user IDs.")
	}
	if info.IssuedTo != b.config.ClientID {
		return nil, oauthErr(http.StatusUnauthorized, "Mismatched token and application IDs.")
	}

	if st.Credentials != "" && st.GoogleID == googleID {
		return &SignInResult{AlreadyLoggedIn: true, Email: st.Email}, nil
	}

	email, err := b.userEmail(ctx, tok)
	if err != nil {
		return nil, oauthErr(http.StatusInternalServerError, providerMessage(err))
	}

	st.Credentials = tok.AccessToken
	st.GoogleID = googleID
	st.Email = email
	st.AccessToken = ""
	slog.Info("Google sign-in", "email", email)
	return &SignInResult{Email: email}, nil
}

// Revoke invalidates the session's Google access token and, if the provider
// accepts, clears every authentication field of st.
func (b *GoogleBridge) Revoke(ctx context.Context, st *session.State) error {
	if st.Credentials == "" {
		return oauthErr(http.StatusUnauthorized, "Current user is not logged in.")
	}

	form := url.Values{"token": {st.Credentials}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		slog.Warn("Google token revocation failed", "error", err)
		return oauthErr(http.StatusBadRequest, "Failed to revoke token for given user.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Google token revocation rejected", "status", resp.StatusCode)
		return oauthErr(http.StatusBadRequest, "Failed to revoke token for given user.")
	}

	st.Credentials = ""
	st.GoogleID = ""
	st.Email = ""
	st.AccessToken = ""
	return nil
}

func (b *GoogleBridge) service(ctx context.Context, client *http.Client) (*oauth2api.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if b.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(b.apiEndpoint))
	}
	return oauth2api.NewService(ctx, opts...)
}

func (b *GoogleBridge) tokenInfo(ctx context.Context, accessToken string) (*oauth2api.Tokeninfo, error) {
	svc, err := b.service(ctx, b.client)
	if err != nil {
		return nil, err
	}
	return svc.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
}

func (b *GoogleBridge) userEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	hc.Timeout = b.client.Timeout
	svc, err := b.service(ctx, hc)
	if err != nil {
		return "", err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if info.Email == "" {
		return "", errors.New("profile has no email address")
	}
	return info.Email, nil
}

// idTokenSubject reads the sub claim of the id_token returned with tok.
// The signature is not checked; SignIn compares the subject with tokeninfo.
func idTokenSubject(tok *oauth2.Token) (string, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return "", errors.New("missing id_token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("id_token has no subject")
	}
	return sub, nil
}

// providerMessage extracts Google's own error text from err.
func providerMessage(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Message != "" {
			return gerr.Message
		}
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal([]byte(gerr.Body), &body) == nil {
			if body.ErrorDescription != "" {
				return body.ErrorDescription
			}
			if body.Error != "" {
				return body.Error
			}
		}
	}
	return err.Error()
}
