package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/handler"
)

// RegisterComplaints registers /api/complaints.  Every route requires a
// valid token; ownership is checked per complaint inside the handlers.
func RegisterComplaints(e *echo.Echo, h *handler.ComplaintHandler, auth Auth) {
	g := e.Group("/api/complaints", auth.chain()...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
