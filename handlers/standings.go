package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/footy/export"
	"github.com/padraicbc/footy/models"
)

func tableParam(c echo.Context) (models.Table, error) {
	t, err := models.ParseTable(c.Param("table"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return t, nil
}

// yearParam accepts a four digit year; "all" and 0 mean every year when
// allowAll is set.
func yearParam(c echo.Context, allowAll bool) (int, error) {
	raw := c.Param("year")
	if allowAll && raw == "all" {
		return 0, nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil || (y == 0 && !allowAll) || y < 0 || y > 9999 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	return y, nil
}

func (h *Handler) Winners(c echo.Context) error {
	table, err := tableParam(c)
	if err != nil {
		return err
	}
	year, err := yearParam(c, true)
	if err != nil {
		return err
	}
	rows, err := h.standings.Winners(c.Request().Context(), table, year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) Table(c echo.Context) error {
	table, err := tableParam(c)
	if err != nil {
		return err
	}
	year, err := yearParam(c, false)
	if err != nil {
		return err
	}
	view, err := h.standings.Table(c.Request().Context(), table, year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// TableXLSX serves the table as a spreadsheet download.
func (h *Handler) TableXLSX(c echo.Context) error {
	table, err := tableParam(c)
	if err != nil {
		return err
	}
	year, err := yearParam(c, false)
	if err != nil {
		return err
	}
	view, err := h.standings.Table(c.Request().Context(), table, year)
	if err != nil {
		return err
	}
	data, err := export.TableXLSX(view)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-%d.xlsx"`, table, year))
	return c.Blob(http.StatusOK, export.XLSXContentType, data)
}
