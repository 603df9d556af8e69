package middleware

// identity.go resolves the verified token subject into a persisted user and
// exposes the resulting principal to handlers.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/repository"
)

// UserFinder looks a user up by id.  It returns repository.ErrNotFound when
// the id does not resolve.  *repository.UserRepo satisfies it.
type UserFinder interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// LoadIdentity fetches the user named by the token subject and stores an
// authz.Principal in the context.  A subject that no longer resolves is
// answered exactly like a missing token.  The role always comes from
// storage, never from the token.
func LoadIdentity(users UserFinder, log *slog.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get(ctxUserID).(uint64)
			if !ok || uid == 0 {
				return notAuthorized(c, "missing_subject")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, uid)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return notAuthorized(c, "unknown_user")
				}
				log.Error("load identity failed", "user_id", uid, "error", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error"})
			}

			c.Set(ctxPrincipal, authz.Principal{
				ID:    u.ID,
				Role:  authz.ParseRole(u.Role),
				Name:  u.Name,
				Email: u.Email,
			})
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by LoadIdentity.  ok is false on
// routes that are not behind it.
func PrincipalFrom(c echo.Context) (authz.Principal, bool) {
	p, ok := c.Get(ctxPrincipal).(authz.Principal)
	return p, ok
}

// WithPrincipal stores p in the context the way LoadIdentity does.  It lets
// tests and internal callers skip token verification.
func WithPrincipal(c echo.Context, p authz.Principal) {
	c.Set(ctxPrincipal, p)
}

// userKey identifies the caller for rate limiting.  Requests that carry no
// principal yet are keyed as "anon".
func userKey(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok && p.ID != 0 {
		return strconv.FormatUint(p.ID, 10)
	}
	if uid, ok := c.Get(ctxUserID).(uint64); ok && uid != 0 {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
