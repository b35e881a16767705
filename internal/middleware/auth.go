// Package middleware holds the gin middleware shared by the HTML pages and
// the JSON API.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/itemcatalog-golang/internal/auth"
	"github.com/01moynul/itemcatalog-golang/internal/session"
)

const sessionKey = "session"

// Sessions loads the cookie session and stores it in the gin context.
func Sessions(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, store.Load(c.Request))
		c.Next()
	}
}

// SessionFrom returns the session loaded by Sessions.
func SessionFrom(c *gin.Context) *session.Session {
	sess, _ := c.MustGet(sessionKey).(*session.Session)
	return sess
}

// RequireLogin redirects to the login page, with a flash explaining why,
// when the guard rejects the session.
func RequireLogin(guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)

		required, reason := guard.RequireLogin(&sess.State)
		if required {
			sess.AddFlash("error", reason)
			if err := sess.Save(c.Request, c.Writer); err != nil {
				slog.Error("Failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAPIToken checks the "token" query parameter of mutating API calls.
func RequireAPIToken(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := c.GetQuery("token")
		if !ok {
			token, ok = c.GetPostForm("token")
		}
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"status":  http.StatusUnprocessableEntity,
				"message": "An access token is required to perform this request.",
			})
			return
		}

		if !tokens.VerifyTimedToken(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  http.StatusUnauthorized,
				"message": "Invalid or expired access token.",
			})
			return
		}

		c.Next()
	}
}
