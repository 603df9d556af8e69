package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and monitoring.  It
// touches no dependency.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "ResolveNow API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
