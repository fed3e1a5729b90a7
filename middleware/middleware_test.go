package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/models"
)

type stubParser map[string]*auth.Session

func (p stubParser) ParseToken(raw string) (*auth.Session, error) {
	if sess, ok := p[raw]; ok {
		return sess, nil
	}
	return nil, apperr.Auth("bad")
}

func roleEcho(parser SessionParser, mws ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(Session(parser))
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, string(auth.RoleOf(c.Request().Context())))
	}, mws...)
	return e
}

func do(e *echo.Echo, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionIsOptional(t *testing.T) {
	e := roleEcho(stubParser{"Bearer u": {UserID: 1, Role: models.RoleUser}})

	rec := do(e, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", rec.Body.String())

	rec = do(e, "Authorization", "Bearer u")
	assert.Equal(t, "user", rec.Body.String())

	rec = do(e, "Authorization", "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	parser := stubParser{
		"Bearer u": {UserID: 1, Role: models.RoleUser},
		"Bearer a": {UserID: 2, Role: models.RoleAdmin},
	}
	e := roleEcho(parser, RequireRole(models.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, do(e, "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(e, "Authorization", "Bearer u").Code)
	assert.Equal(t, http.StatusOK, do(e, "Authorization", "Bearer a").Code)
}

func TestCronSecret(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, CronSecret("s3cret"))

	assert.Equal(t, http.StatusUnauthorized, do(e, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, CronSecretHeader, "s3cre").Code)
	assert.Equal(t, http.StatusNoContent, do(e, CronSecretHeader, "s3cret").Code)
	assert.Equal(t, http.StatusNoContent, do(e, "Authorization", "Bearer s3cret").Code)
}

func TestCronSecretEmptyNeverMatches(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, CronSecret(""))
	assert.Equal(t, http.StatusUnauthorized, do(e, CronSecretHeader, "").Code)
}

func TestRateLimitPerIP(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		RateLimit(rate.Limit(0.001), 2))

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusNoContent, from("10.0.0.1"))
	require.Equal(t, http.StatusNoContent, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, from("10.0.0.2"))
}
