package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
	"github.com/iliyamo/resolvenow/internal/handler"
	"github.com/iliyamo/resolvenow/internal/middleware"
)

// RegisterFeedback registers /api/feedback.  Feedback is append-only, so
// there are no update or delete routes.  With statsAdminOnly the stats
// route additionally requires the admin role.
func RegisterFeedback(e *echo.Echo, h *handler.FeedbackHandler, auth Auth, statsAdminOnly bool) {
	g := e.Group("/api/feedback", auth.chain()...)
	g.GET("", h.List)
	g.POST("", h.Create)

	var statsMW []echo.MiddlewareFunc
	if statsAdminOnly {
		statsMW = append(statsMW, middleware.RequireRole(authz.RoleAdmin))
	}
	g.GET("/stats", h.Stats, statsMW...)
	g.GET("/:id", h.Get)
}
