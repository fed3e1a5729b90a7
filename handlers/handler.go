package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/auth"
	"github.com/padraicbc/footy/blob"
	"github.com/padraicbc/footy/gamedays"
	"github.com/padraicbc/footy/players"
	"github.com/padraicbc/footy/responses"
	"github.com/padraicbc/footy/standings"
)

// Handler holds the services used by the route handlers.
type Handler struct {
	auth      *auth.Service
	players   *players.Service
	gamedays  *gamedays.Service
	responses *responses.Service
	standings *standings.Service
	blobs     *blob.Store
	reporter  *apperr.Reporter
	logger    *zap.Logger
	loc       *time.Location
}

type Deps struct {
	Auth      *auth.Service
	Players   *players.Service
	GameDays  *gamedays.Service
	Responses *responses.Service
	Standings *standings.Service
	Blobs     *blob.Store
	Reporter  *apperr.Reporter
	Logger    *zap.Logger
	Location  *time.Location
}

func New(d Deps) *Handler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &Handler{
		auth:      d.Auth,
		players:   d.Players,
		gamedays:  d.GameDays,
		responses: d.Responses,
		standings: d.Standings,
		blobs:     d.Blobs,
		reporter:  d.Reporter,
		logger:    d.Logger.Named("http"),
		loc:       d.Location,
	}
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation: http.StatusBadRequest,
	apperr.KindNotFound:   http.StatusNotFound,
	apperr.KindAuth:       http.StatusUnauthorized,
	apperr.KindForbidden:  http.StatusForbidden,
	apperr.KindConflict:   http.StatusConflict,
	apperr.KindExternal:   http.StatusBadGateway,
}

// HTTPError converts a service error into the response sent to the client.
// Unexpected errors are reported and hidden behind a generic message.
func (h *Handler) HTTPError(c echo.Context, err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	if status, ok := kindStatus[apperr.KindOf(err)]; ok {
		return echo.NewHTTPError(status, apperr.PublicMessage(err)).SetInternal(err)
	}
	var re *standings.RecordsError
	if errors.As(err, &re) {
		return echo.NewHTTPError(http.StatusInternalServerError, re.Error()).SetInternal(err)
	}
	h.reporter.Report(c.Request().Context(), err, map[string]any{
		"method": c.Request().Method,
		"path":   c.Path(),
		"params": pathParams(c),
	})
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// ErrorHandler is installed as echo's HTTPErrorHandler.
func (h *Handler) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he := h.HTTPError(c, err)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, map[string]any{"message": he.Message})
	}
	if err != nil {
		h.logger.Error("failed to write error response", zap.Error(err))
	}
}

func pathParams(c echo.Context) map[string]any {
	out := make(map[string]any, len(c.ParamNames()))
	for i, name := range c.ParamNames() {
		out[name] = c.ParamValues()[i]
	}
	return out
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// written returns body with 200 unless err is set. A RecordsError after a
// successful write still fails the request.
func written(c echo.Context, status int, body any, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(status, body)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
