package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/01moynul/itemcatalog-golang/internal/models"
	"github.com/01moynul/itemcatalog-golang/internal/store"
)

// credentialsInput carries a username/password pair from a form, the query
// string or a JSON body.
type credentialsInput struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// validate returns the validator engine gin binds with.
func validate() *validator.Validate {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	return v
}

func validEmail(s string) bool {
	return validate().Var(s, "required,email") == nil
}

// validPassword requires at least eight characters and no whitespace.
func validPassword(s string) bool {
	return validate().Var(s, "min=8") == nil && strings.IndexFunc(s, unicode.IsSpace) < 0
}

// authenticate returns the user for a username/password pair, or nil when
// the pair does not match an account.
func (h *Handlers) authenticate(c *gin.Context, username, password string) (*models.User, error) {
	user, err := h.Store.GetUserByUsername(c.Request.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ok, err := user.CheckPassword(password)
	if err != nil || !ok {
		return nil, err
	}
	return user, nil
}

// Register creates a local account.
func (h *Handlers) Register(c *gin.Context) {
	var input credentialsInput
	_ = c.ShouldBind(&input)
	if input.Username == "" || input.Password == "" {
		apiJSON(c, http.StatusUnprocessableEntity, "Registrant must provide both an email and password.")
		return
	}
	if !validEmail(input.Username) {
		apiJSON(c, http.StatusBadRequest, "Registration requires a valid email address.")
		return
	}
	if !validPassword(input.Password) {
		apiJSON(c, http.StatusBadRequest, "Registrant's password must contain at least 8 symbols but no spaces.")
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.logger().Error("Failed to hash password", "error", err)
		apiJSON(c, http.StatusInternalServerError, "Server-side error occurred during registration.")
		return
	}

	if _, err := h.Store.CreateUser(c.Request.Context(), input.Username, password.Hash); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			h.logger().Error("Failed to create user", "error", err)
		}
		apiJSON(c, http.StatusInternalServerError, "Email address already exists in DB.")
		return
	}

	h.logger().Info("Registered user", "email", strings.ToLower(input.Username))
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully registered new user '%s'", input.Username))
}

// IssueToken trades a username and password for a timed access token.
func (h *Handlers) IssueToken(c *gin.Context) {
	var input credentialsInput
	_ = c.ShouldBind(&input)
	if input.Username == "" || input.Password == "" {
		apiJSON(c, http.StatusUnprocessableEntity, "Credentials must be provided to obtain an access token.")
		return
	}

	user, err := h.authenticate(c, input.Username, input.Password)
	if err != nil {
		h.logger().Error("Failed to check credentials", "error", err)
		apiJSON(c, http.StatusInternalServerError, "Server-side error occurred while issuing a token.")
		return
	}
	if user == nil {
		apiJSON(c, http.StatusBadRequest, "Incorrect username or password.")
		return
	}

	ttl := h.Guard.TTL()
	token, err := h.Tokens.IssueTimedToken(ttl)
	if err != nil {
		h.logger().Error("Failed to sign token", "error", err)
		apiJSON(c, http.StatusInternalServerError, "Server-side error occurred while issuing a token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"token":  token,
		"TTL":    int(ttl.Seconds()),
	})
}
