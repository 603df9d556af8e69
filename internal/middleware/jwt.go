package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/metrics"
	"github.com/iliyamo/resolvenow/internal/utils"
)

// Context keys shared by the middleware chain and the handlers.
const (
	ctxUserID    = "user_id"
	ctxPrincipal = "principal"
)

// MsgNotAuthorized is the single body message for every authentication
// failure.  Callers cannot tell a missing token from an expired one or from
// a deleted user.
const MsgNotAuthorized = "Not authorized to access this route"

// notAuthorized writes the uniform 401 envelope and counts the reason.
func notAuthorized(c echo.Context, reason string) error {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": MsgNotAuthorized})
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the verified subject (user id, uint64) in the context under
// "user_id".  It must run before LoadIdentity.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <jwt>".  Anything else is treated
			// exactly like a bad token.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return notAuthorized(c, "missing_token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return notAuthorized(c, "invalid_token")
			}

			c.Set(ctxUserID, claims.UserID)
			return next(c)
		}
	}
}
