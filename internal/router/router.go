// Package router binds HTTP paths to handlers and their middleware.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/upload"
)

// New returns an Echo instance with the process-wide middleware installed:
// trailing-slash normalisation, request ids, panic recovery, CORS, zap
// request logging and the JSON error handler.
func New(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)

	// /api/movies/ and /api/movies are the same resource.
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLogger(log))
	return e
}

// RegisterRoutes registers the health check and, when uploadDir is set, the
// read-only /uploads file server for locally stored posters.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, uploadDir string) {
	e.GET("/healthz", handler.Health(db))
	if uploadDir != "" {
		e.Static("/uploads", uploadDir)
	}
}

// RegisterAuth mounts the authentication collaborator under /api/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterMovies mounts the catalog under /api/movies.  group middleware
// (rate limiting, response cache) wraps every route.  On writes the poster
// upload runs before validation, since validation only sees body fields.
func RegisterMovies(e *echo.Echo, h *handler.MovieHandler, store upload.Store, maxPosterBytes int64, group ...echo.MiddlewareFunc) {
	g := e.Group("/api/movies", group...)
	poster := middleware.PosterUpload(store, "poster", maxPosterBytes)

	g.POST("", h.Create, poster, h.ValidateMovie)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, poster, h.ValidateMovie)
	g.DELETE("/:id", h.Delete)
}
