package handlers

import (
	"github.com/labstack/echo/v4"

	mw "github.com/padraicbc/footy/middleware"
	"github.com/padraicbc/footy/models"
)

// Guards are the per-group middlewares main builds from config.
type Guards struct {
	RateLimit  echo.MiddlewareFunc
	CronSecret string
}

// Register installs the error handler, the session parser and every
// /api/footy route on e. The cron route sits outside the session group so
// its secret may travel as a bearer value.
func (h *Handler) Register(e *echo.Echo, g Guards) {
	e.HTTPErrorHandler = h.ErrorHandler
	e.GET("/healthz", h.Healthz)

	api := e.Group("/api/footy", mw.Session(h.auth))

	// Public
	api.POST("/signin", h.Signin)
	api.GET("/player/:id", h.Player)
	api.GET("/player/:id/chart.png", h.PlayerChart)
	api.GET("/turnout/:gameDayId", h.Turnout)
	api.GET("/result/:gameDayId", h.Result)
	api.GET("/winners/:table/:year", h.Winners)
	api.GET("/table/:table/:year", h.Table)
	api.GET("/table/:table/:year/xlsx", h.TableXLSX)
	api.GET("/blob/:container/:name", h.GetBlob)

	// Emailed links
	links := api.Group("", g.RateLimit)
	links.POST("/respond/:token", h.RespondWithToken)
	links.POST("/claim/:token", h.Claim)
	links.POST("/verify/:token", h.VerifyEmail)
	links.POST("/password/reset", h.RequestPasswordReset)
	links.POST("/password/reset/:token", h.ResetPassword)

	// Signed in
	user := api.Group("", mw.RequireRole(models.RoleUser, models.RoleAdmin))
	user.PUT("/player/:id", h.UpdatePlayer)
	user.DELETE("/player/:id", h.DeletePlayer)
	user.POST("/response", h.Respond)

	admin := api.Group("/admin", mw.RequireRole(models.RoleAdmin))
	admin.POST("/players", h.CreatePlayer)
	admin.POST("/gamedays", h.CreateGameDays)
	admin.POST("/gamedays/:id/cancel", h.CancelGameDay)
	admin.POST("/gamedays/:id/reinstate", h.ReinstateGameDay)
	admin.PUT("/gamedays/:id/result", h.SetResult)
	admin.PUT("/gamedays/:id/team", h.SetTeam)
	admin.PUT("/gamedays/:id/response", h.AdminRespond)
	admin.PUT("/gamedays/:id/drinkers", h.SetDrinkers)
	admin.POST("/broadcast", h.Broadcast)
	api.PUT("/blob/:container/:name", h.PutBlob, mw.RequireRole(models.RoleAdmin))

	e.POST("/api/footy/invitations", h.SendInvitations, mw.CronSecret(g.CronSecret))
}
