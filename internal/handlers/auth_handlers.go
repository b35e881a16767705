package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/itemcatalog-golang/internal/auth"
	"github.com/01moynul/itemcatalog-golang/internal/models"
)

const maxAuthCodeBytes = 4 << 10

// LoginForm issues a fresh anti-forgery state and shows the login page.
func (h *Handlers) LoginForm(c *gin.Context) {
	sess := h.session(c)
	sess.LoginState = auth.GenerateToken()

	data := gin.H{"Subheading": "Log in", "State": sess.LoginState}
	if h.Google != nil {
		data["GoogleClientID"] = h.Google.ClientID()
	}
	h.render(c, http.StatusOK, "login.html", data)
}

// Login checks a local username and password.
func (h *Handlers) Login(c *gin.Context) {
	sess := h.session(c)

	if state := c.PostForm("state"); sess.LoginState == "" || state != sess.LoginState {
		h.flash(c, "error", "Invalid login session.")
		h.redirect(c, "/login")
		return
	}

	var input credentialsInput
	_ = c.ShouldBind(&input)
	username := strings.ToLower(strings.TrimSpace(input.Username))

	var user *models.User
	if validEmail(username) && input.Password != "" {
		var err error
		user, err = h.authenticate(c, username, input.Password)
		if err != nil {
			h.serverError(c, err)
			return
		}
	}
	if user == nil {
		h.flash(c, "error", "Incorrect username or password.")
		h.redirect(c, "/login")
		return
	}

	if err := h.Guard.LogIn(&sess.State, user.Username); err != nil {
		h.serverError(c, err)
		return
	}
	h.logger().Info("Local login", "email", user.Username)
	h.flash(c, "success", fmt.Sprintf("You are now logged in as '%s'.", user.Username))
	h.redirect(c, "/")
}

// Logout ends a local session. Google sessions are handed to GoogleSignOut
// so the provider token gets revoked.
func (h *Handlers) Logout(c *gin.Context) {
	sess := h.session(c)
	if sess.GoogleID != "" {
		h.redirect(c, "/oauth2/google/signout")
		return
	}

	h.Guard.LogOut(&sess.State)
	h.flash(c, "success", "Logged out successfully.")
	h.redirect(c, "/")
}

// oauthFailure writes err as a JSON envelope.
func (h *Handlers) oauthFailure(c *gin.Context, err error) {
	var oe *auth.OAuthError
	if errors.As(err, &oe) {
		apiJSON(c, oe.Status, oe.Message)
		return
	}
	h.logger().Error("Google request failed", "error", err)
	apiJSON(c, http.StatusInternalServerError, "Google sign-in failed.")
}

// GoogleSignIn exchanges the one-time code posted by the login page.
func (h *Handlers) GoogleSignIn(c *gin.Context) {
	if h.Google == nil {
		apiJSON(c, http.StatusServiceUnavailable, "Google sign-in is not configured.")
		return
	}

	code, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAuthCodeBytes))
	if err != nil {
		apiJSON(c, http.StatusBadRequest, "Failed to read the authorization code.")
		return
	}

	sess := h.session(c)
	res, err := h.Google.SignIn(c.Request.Context(), &sess.State, c.Query("state"), string(code))
	if err != nil {
		h.oauthFailure(c, err)
		return
	}
	if res.AlreadyLoggedIn {
		apiJSON(c, http.StatusOK, "Current user is already logged in.")
		return
	}

	h.flash(c, "success", fmt.Sprintf("You are now logged in as '%s'.", res.Email))
	h.redirect(c, "/")
}

// GoogleSignOut revokes the provider token and clears the session.
func (h *Handlers) GoogleSignOut(c *gin.Context) {
	if h.Google == nil {
		apiJSON(c, http.StatusServiceUnavailable, "Google sign-in is not configured.")
		return
	}

	sess := h.session(c)
	if err := h.Google.Revoke(c.Request.Context(), &sess.State); err != nil {
		h.oauthFailure(c, err)
		return
	}

	h.flash(c, "success", "Logged out successfully.")
	h.redirect(c, "/")
}
