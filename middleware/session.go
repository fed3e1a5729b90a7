package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/models"
)

// SessionParser turns an Authorization header value into a session.
type SessionParser interface {
	ParseToken(raw string) (*auth.Session, error)
}

// Session parses the Authorization header when present and stores the
// session in the request context. Requests without the header pass through
// signed out; a bad header is rejected.
func Session(p SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			sess, err := p.ParseToken(header)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithSession(req.Context(), sess)))
			c.Set("user_id", sess.UserID)
			c.Set("role", string(sess.Role))
			return next(c)
		}
	}
}

// RequireRole rejects signed-out callers with 401 and callers without one of
// roles with 403.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := auth.RoleOf(c.Request().Context())
			if role == models.RoleNone {
				return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
			}
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}
