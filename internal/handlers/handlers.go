package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/01moynul/itemcatalog-golang/internal/auth"
	"github.com/01moynul/itemcatalog-golang/internal/media"
	"github.com/01moynul/itemcatalog-golang/internal/middleware"
	"github.com/01moynul/itemcatalog-golang/internal/session"
	"github.com/01moynul/itemcatalog-golang/internal/store"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store   *store.Store
	Tokens  *auth.TokenService
	Guard   *auth.Guard
	Google  *auth.GoogleBridge // nil when Google sign-in is not configured
	Uploads *media.Uploader
	Title   string
	Logger  *slog.Logger
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handlers) session(c *gin.Context) *session.Session {
	return middleware.SessionFrom(c)
}

func (h *Handlers) saveSession(c *gin.Context) {
	if err := h.session(c).Save(c.Request, c.Writer); err != nil {
		h.logger().Error("Failed to save session", "error", err)
	}
}

// flash queues a message for the next rendered page.
func (h *Handlers) flash(c *gin.Context, kind, message string) {
	h.session(c).AddFlash(kind, message)
}

// render executes a page with the data every layout needs. Pending flashes
// are consumed and the session is saved before anything is written.
func (h *Handlers) render(c *gin.Context, status int, page string, data gin.H, extra ...session.FlashMessage) {
	sess := h.session(c)
	mode := h.Guard.ModeOf(&sess.State)

	if data == nil {
		data = gin.H{}
	}
	data["Title"] = h.Title
	data["LoggedIn"] = mode == auth.LocalAuthenticated || mode == auth.OAuthAuthenticated
	data["Email"] = sess.Email
	data["Flashes"] = append(sess.Flashes(), extra...)
	data["CSRFField"] = csrf.TemplateField(c.Request)

	h.saveSession(c)
	c.HTML(status, page, data)
}

// redirect saves the session and sends the browser to location.
func (h *Handlers) redirect(c *gin.Context, location string) {
	h.saveSession(c)
	c.Redirect(http.StatusFound, location)
}

func (h *Handlers) errorPage(c *gin.Context, status int, message string) {
	h.render(c, status, "error.html", gin.H{"Status": status, "Message": message})
}

func (h *Handlers) serverError(c *gin.Context, err error) {
	h.logger().Error("Request failed", "path", c.Request.URL.Path, "error", err)
	c.Error(err)
	h.errorPage(c, http.StatusInternalServerError, "Something went wrong on our side. Please try again.")
}

// NotFound renders the error page for unknown HTML routes.
func (h *Handlers) NotFound(c *gin.Context) {
	h.errorPage(c, http.StatusNotFound, "Page not found.")
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// Healthz reports whether the database answers.
func (h *Handlers) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
