package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/models"
	"github.com/padraicbc/footy/outcome"
	"github.com/padraicbc/footy/responses"
)

func (h *Handler) CreateGameDays(c echo.Context) error {
	var req struct {
		Dates []string `json:"dates"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	days, err := h.gamedays.CreateMoreGameDays(c.Request().Context(), req.Dates)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, days)
}

func (h *Handler) CancelGameDay(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Reason string `json:"reason"`
		Notify bool   `json:"notify"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	gd, n, err := h.gamedays.Cancel(c.Request().Context(), id, req.Reason, req.Notify)
	return written(c, http.StatusOK, map[string]any{"gameDay": gd, "recipientCount": n}, err)
}

func (h *Handler) ReinstateGameDay(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	gd, err := h.gamedays.Reinstate(c.Request().Context(), id)
	return written(c, http.StatusOK, gd, err)
}

func (h *Handler) SetResult(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Winner string       `json:"winner"`
		Bibs   *models.Team `json:"bibs"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	winner, ok := outcome.ParseWinner(req.Winner)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "winner must be A, B, draw or unset")
	}
	view, err := h.gamedays.SetResult(c.Request().Context(), id, winner, req.Bibs)
	return written(c, http.StatusOK, view, err)
}

func (h *Handler) Result(c echo.Context) error {
	id, err := intParam(c, "gameDayId")
	if err != nil {
		return err
	}
	view, err := h.gamedays.Result(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) SetTeam(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		PlayerID int          `json:"playerId"`
		Team     *models.Team `json:"team"`
		Goalie   bool         `json:"goalie"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	o, err := h.gamedays.SetTeam(c.Request().Context(), id, req.PlayerID, req.Team, req.Goalie)
	return written(c, http.StatusOK, o, err)
}

func (h *Handler) Turnout(c echo.Context) error {
	id, err := intParam(c, "gameDayId")
	if err != nil {
		return err
	}
	t, err := h.gamedays.Turnout(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// SendInvitations is the cron entry point.
func (h *Handler) SendInvitations(c echo.Context) error {
	report, err := h.gamedays.SendInvitations(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// Respond records the signed-in player's own reply.
func (h *Handler) Respond(c echo.Context) error {
	sess, ok := auth.SessionFrom(c.Request().Context())
	if !ok || sess.PlayerID == nil {
		return echo.NewHTTPError(http.StatusForbidden, "no player linked to this account")
	}
	var r responses.Reply
	if err := bind(c, &r); err != nil {
		return err
	}
	r.PlayerID = *sess.PlayerID
	o, err := h.responses.Respond(c.Request().Context(), r)
	return written(c, http.StatusOK, o, err)
}

// RespondWithToken records a reply from an emailed link. The response may
// come in the body or as ?response=.
func (h *Handler) RespondWithToken(c echo.Context) error {
	var r responses.Reply
	if err := bind(c, &r); err != nil {
		return err
	}
	if r.Response == "" {
		r.Response = models.Response(c.QueryParam("response"))
	}
	o, err := h.responses.RespondWithToken(c.Request().Context(), c.Param("token"), r)
	return written(c, http.StatusOK, o, err)
}

func (h *Handler) AdminRespond(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var r responses.Reply
	if err := bind(c, &r); err != nil {
		return err
	}
	r.GameDayID = id
	o, err := h.responses.AdminRespond(c.Request().Context(), r)
	return written(c, http.StatusOK, o, err)
}

func (h *Handler) SetDrinkers(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Selections []responses.Selection `json:"selections"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	pub, err := h.responses.SetDrinkers(c.Request().Context(), id, req.Selections)
	return written(c, http.StatusOK, pub, err)
}
