package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/api"
	"github.com/pageza/recipe-pages/backend/internal/middleware"
)

// Route labels, also used as metric labels
const (
	RouteForm     = "/"
	RouteSearch   = "/search"
	RouteCallback = "/auth"
	RouteOther    = "other"
)

// Options carries the optional pieces of the router
type Options struct {
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For; nil trusts none
	TrustedProxies []string
	// SearchLimiter is applied to the search route only
	SearchLimiter *middleware.RateLimiter
}

// Route maps a request path to its logical route. Search and callback match
// on prefix, the form only on the exact root.
func Route(path string) string {
	switch {
	case path == "/":
		return RouteForm
	case strings.HasPrefix(path, RouteSearch):
		return RouteSearch
	case strings.HasPrefix(path, RouteCallback):
		return RouteCallback
	default:
		return RouteOther
	}
}

// SetupRouter configures the application routes
func SetupRouter(h *api.RecipeHandler, logger *zap.Logger, opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = false
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("Ignoring invalid trusted proxies", zap.Strings("trusted_proxies", opts.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger, Route),
		middleware.Recovery(logger),
	)
	if len(opts.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(opts.AllowedOrigins))
	}
	router.Use(middleware.ErrorHandler(logger))

	search := []gin.HandlerFunc{h.Search}
	if opts.SearchLimiter != nil {
		search = append([]gin.HandlerFunc{opts.SearchLimiter.Middleware()}, search...)
	}

	router.Any(RouteForm, h.Form)
	router.NoRoute(func(c *gin.Context) {
		switch Route(c.Request.URL.Path) {
		case RouteForm:
			h.Form(c)
		case RouteSearch:
			run(c, search)
		case RouteCallback:
			h.Callback(c)
		default:
			h.NotFound(c)
		}
	})

	return router
}

// run executes a handler chain inside a single gin handler
func run(c *gin.Context, chain []gin.HandlerFunc) {
	for _, handler := range chain {
		handler(c)
		if c.IsAborted() {
			return
		}
	}
}
