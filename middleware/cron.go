package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CronSecretHeader carries the shared secret on scheduled calls.
const CronSecretHeader = "X-Cron-Secret"

// CronSecret admits requests whose secret header or bearer value matches
// secret. The comparison is constant time.
func CronSecret(secret string) echo.MiddlewareFunc {
	want := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(CronSecretHeader)
			if got == "" {
				got = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			}
			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}
