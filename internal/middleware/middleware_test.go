package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/itemcatalog-golang/internal/auth"
	"github.com/01moynul/itemcatalog-golang/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Status, body.Message
}

func TestRequireAPIToken(t *testing.T) {
	tokens := auth.NewTokenService([]byte("api-secret"))
	valid, err := tokens.IssueTimedToken(time.Minute)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/api/add/category", RequireAPIToken(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": 200, "message": "ok"})
	})

	tests := []struct {
		name    string
		query   string
		status  int
		message string
	}{
		{"missing token", "", http.StatusUnprocessableEntity, "An access token is required to perform this request."},
		{"bad token", "?token=garbage", http.StatusUnauthorized, "Invalid or expired access token."},
		{"valid token", "?token=" + valid, http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/add/category"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			status, message := decodeEnvelope(t, rec)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestRequireLogin_RedirectsWithFlash(t *testing.T) {
	store := session.NewStore([]byte("0123456789abcdef0123456789abcdef"), false)
	guard := auth.NewGuard(auth.NewTokenService([]byte("s")), 15*time.Minute)

	r := gin.New()
	r.Use(Sessions(store))
	r.GET("/categories/add", RequireLogin(guard), func(c *gin.Context) {
		c.String(http.StatusOK, "form")
	})
	r.GET("/flashes", func(c *gin.Context) {
		sess := SessionFrom(c)
		var msgs []string
		for _, f := range sess.Flashes() {
			msgs = append(msgs, f.Message)
		}
		c.String(http.StatusOK, strings.Join(msgs, "|"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/add", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/flashes", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, auth.MsgLoginRequired, rec.Body.String())
}

func TestRequireLogin_PassesLoggedInSession(t *testing.T) {
	store := session.NewStore([]byte("0123456789abcdef0123456789abcdef"), false)
	guard := auth.NewGuard(auth.NewTokenService([]byte("s")), 15*time.Minute)

	r := gin.New()
	r.Use(Sessions(store))
	r.GET("/login-as", func(c *gin.Context) {
		sess := SessionFrom(c)
		require.NoError(t, guard.LogIn(&sess.State, "user@example.com"))
		require.NoError(t, sess.Save(c.Request, c.Writer))
		c.Status(http.StatusNoContent)
	})
	r.GET("/protected", RequireLogin(guard), func(c *gin.Context) {
		c.String(http.StatusOK, SessionFrom(c).Email)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login-as", nil))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	rl := NewRateLimiter(60, 2, metrics)

	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.limited))

	// A different client has its own bucket.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "198.51.100.1:5000"
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rl.Cleanup(time.Now().Add(time.Hour))
	assert.Empty(t, rl.visitors)
}

func TestMetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(Logging(logger), metrics.Handler(), SecurityHeaders())
	r.GET("/category/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/category/1", "/category/2", "/nowhere"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/category/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Contains(t, buf.String(), "path=/category/1")
	assert.Contains(t, buf.String(), "status=404")
}
