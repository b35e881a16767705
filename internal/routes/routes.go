package routes

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/01moynul/itemcatalog-golang/internal/handlers"
	"github.com/01moynul/itemcatalog-golang/internal/middleware"
	"github.com/01moynul/itemcatalog-golang/internal/session"
	"github.com/01moynul/itemcatalog-golang/internal/web"
)

// Options carries the infrastructure the router is assembled from. Metrics,
// Gatherer and Limiter are optional.
type Options struct {
	Logger         *slog.Logger
	Sessions       *session.Store
	Metrics        *middleware.Metrics
	Gatherer       prometheus.Gatherer
	Limiter        *middleware.RateLimiter
	UploadsDir     string
	MaxUploadBytes int64
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
}

// APICORS lets browsers on other origins call the JSON API. The API is
// authenticated by token parameters, never by cookies, so no credentials
// are allowed.
func APICORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		// Preflight requests get an empty 204.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) (*gin.Engine, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(gin.Recovery(), middleware.Logging(logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Handler())
	}
	router.Use(middleware.SecurityHeaders())

	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if opts.Limiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{opts.Limiter.Handler(), handler}
	}

	// --- Assets & Ops ---
	router.StaticFS("/static", http.FS(web.Static()))
	if opts.UploadsDir != "" {
		router.Static("/uploads", opts.UploadsDir)
	}
	router.GET("/healthz", h.Healthz)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// --- HTML Pages (Session) ---
	pages := router.Group("/")
	pages.Use(middleware.Sessions(opts.Sessions))
	{
		pages.GET("/", h.Index)
		pages.GET("/index", h.Index)
		pages.GET("/category/:category_id", h.ShowCategory)

		pages.GET("/login", h.LoginForm)
		pages.POST("/login", limited(h.Login)...)
		pages.GET("/logout", h.Logout)
		pages.POST("/logout", h.Logout)

		pages.POST("/oauth2/google/signin", limited(h.GoogleSignIn)...)
		pages.GET("/oauth2/google/signout", h.GoogleSignOut)

		// --- Protected Pages (Login Required) ---
		admin := pages.Group("/")
		admin.Use(middleware.RequireLogin(h.Guard), limitBody(opts.MaxUploadBytes))
		{
			admin.GET("/items/:category_id/add", h.AddItemForm)
			admin.POST("/items/:category_id/add", h.AddItem)
			admin.GET("/items/update/:category_id/:item_id", h.UpdateItemForm)
			admin.POST("/items/update/:category_id/:item_id", h.UpdateItem)
			admin.GET("/items/delete/:category_id/:item_id", h.DeleteItemForm)
			admin.POST("/items/delete/:category_id/:item_id", h.DeleteItem)

			admin.GET("/categories/add", h.AddCategoryForm)
			admin.POST("/categories/add", h.AddCategory)
			admin.GET("/categories/update/:category_id", h.UpdateCategoryForm)
			admin.POST("/categories/update/:category_id", h.UpdateCategory)
			admin.GET("/categories/delete/:category_id", h.DeleteCategoryForm)
			admin.POST("/categories/delete/:category_id", h.DeleteCategory)
		}
	}

	// --- JSON API ---
	api := router.Group("/api")
	api.Use(APICORS())
	{
		api.OPTIONS("/*path", func(c *gin.Context) {})

		api.POST("/registration", limited(h.Register)...)
		api.POST("/tokens", limited(h.IssueToken)...)

		api.GET("/categories/json", h.CategoriesJSON)
		api.GET("/items/json", h.ItemsJSON)

		// --- Token Required ---
		protected := api.Group("")
		protected.Use(middleware.RequireAPIToken(h.Tokens))
		{
			protected.POST("/add/category", h.APIAddCategory)
			protected.POST("/add/item", h.APIAddItem)
			protected.PUT("/update/category", h.APIUpdateCategory)
			protected.PUT("/update/item", h.APIUpdateItem)
			protected.DELETE("/delete/category", h.APIDeleteCategory)
			protected.DELETE("/delete/item", h.APIDeleteItem)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		if isAPIPath(c.Request.URL.Path) {
			handlers.BadRoute(c)
			c.Abort()
		}
	}, middleware.Sessions(opts.Sessions), h.NotFound)

	return router, nil
}

// NewHandler wraps the router with CSRF protection for the HTML forms. The
// JSON API and the Google callback carry their own credentials and are not
// checked.
func NewHandler(h *handlers.Handlers, opts Options) (http.Handler, error) {
	router, err := SetupRouter(h, opts)
	if err != nil {
		return nil, err
	}

	protect := csrf.Protect(
		opts.CSRFKey,
		csrf.Secure(opts.SecureCookies),
		csrf.Path("/"),
		csrf.TrustedOrigins(opts.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)
	protected := protect(router)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) || strings.HasPrefix(r.URL.Path, "/oauth2/") {
			r = csrf.UnsafeSkipCheck(r)
		}
		if r.TLS == nil && !opts.SecureCookies {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protected.ServeHTTP(w, r)
	}), nil
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("CSRF check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "Forbidden - the form has expired, please reload the page and try again.", http.StatusForbidden)
}

// limitBody caps request bodies, and with them image uploads, at n bytes.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
