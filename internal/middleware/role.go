package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
)

// RequireRole returns a middleware that admits only principals holding one
// of roles.  It must run after LoadIdentity.  A refused principal gets the
// same 401 body as an unauthenticated request.
func RequireRole(roles ...authz.Role) echo.MiddlewareFunc {
	allowed := make(map[authz.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok || !allowed[p.Role] {
				return notAuthorized(c, "role")
			}
			return next(c)
		}
	}
}
