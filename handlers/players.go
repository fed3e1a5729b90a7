package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/footy/export"
	"github.com/padraicbc/footy/players"
)

func (h *Handler) CreatePlayer(c echo.Context) error {
	var req players.NewPlayer
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.players.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Player(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.players.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// PlayerChart draws the player's points per year.
func (h *Handler) PlayerChart(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.players.Profile(ctx, id); err != nil {
		return err
	}
	recs, err := h.standings.PlayerRecords(ctx, id)
	if err != nil {
		return err
	}
	png, err := export.PointsChartPNG(recs)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, export.PNGContentType, png)
}

func (h *Handler) UpdatePlayer(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req players.Update
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.players.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) DeletePlayer(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.players.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type broadcastRequest struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Broadcast mails every active player.
func (h *Handler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Subject == "" || req.HTML == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "subject and html are required")
	}
	res, err := h.players.EmailActivePlayers(c.Request().Context(), req.Subject, req.HTML)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
