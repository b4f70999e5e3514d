package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/classroom-seating/internal/config"
	"github.com/iliyamo/classroom-seating/internal/handler"
	"github.com/iliyamo/classroom-seating/internal/middleware"
	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/syncclient"
)

// SeatingOptions carries the cross-cutting settings of the seating routes.
// Redis may be nil, which turns rate limiting and caching off.
type SeatingOptions struct {
	JWTSecret string
	CSRF      bool
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// csrfTokenLookup accepts the token under either header the chart client
// sends.
const csrfTokenLookup = "header:" + syncclient.HeaderXCSRFToken + ",header:" + syncclient.HeaderCSRFToken

// RegisterSeating registers the course-scoped seating endpoints.  Every
// route requires a valid JWT with the admin or issuer role.  With CSRF on,
// the chart page issues the token and every write must echo it.
func RegisterSeating(e *echo.Echo, h *handler.SeatingHandler, opts SeatingOptions) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	g := e.Group(
		"/courses/:course_id",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleIssuer),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, log),
	)
	if opts.CSRF {
		g.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
			TokenLookup:    csrfTokenLookup,
			ContextKey:     handler.CSRFContextKey,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteStrictMode,
			ErrorHandler: func(err error, c echo.Context) error {
				return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "error": "CSRF token missing or incorrect"})
			},
		}))
	}

	// ---- Chart page ----
	g.GET("/seating", h.Page)

	// ---- Seating API ----
	api := g.Group("/api",
		middleware.NewRedisCache(opts.Cache, opts.Redis),
		middleware.InvalidateOnWrite(opts.Cache, opts.Redis, log),
	)
	api.GET("/seating", h.ListPositions)
	api.POST("/seating/students/:user_id", h.UpdateSeat)
	api.POST("/seating/bulk_lock", h.BulkLock)

	// ---- Layouts ----
	api.GET("/seating/layouts", h.ListLayouts)
	api.POST("/seating/layouts", h.SaveLayout)
	api.POST("/seating/layouts/:layout_id/load", h.LoadLayout)

	// ---- Behaviour ----
	api.POST("/behaviour/:user_id/adjust", h.AdjustBehaviour)
}
