// Package router defines how HTTP routes are registered for the API.  Every
// route lives under /api.
package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/handler"
	"github.com/iliyamo/resolvenow/internal/middleware"
)

// Auth carries what the protected groups need to authenticate a request:
// the token secret and the user lookup behind LoadIdentity.
type Auth struct {
	Secret string
	Users  middleware.UserFinder
	Log    *slog.Logger
}

// chain is the credential check followed by the identity load.  Both must
// run, in this order, before any protected handler.
func (a Auth) chain() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(a.Secret),
		middleware.LoadIdentity(a.Users, a.Log),
	}
}

// RegisterRoutes registers the routes that do not require authentication:
// the health check and, when metrics is non-nil, the Prometheus endpoint.
func RegisterRoutes(e *echo.Echo, metrics http.Handler) {
	e.GET("/api/health", handler.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers /api/auth.  Register and login are public; /me
// requires a valid token.
func RegisterAuth(e *echo.Echo, h *handler.AuthHandler, auth Auth) {
	g := e.Group("/api/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/me", h.Me, auth.chain()...)
}
