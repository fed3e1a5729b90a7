package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/footy/blob"
)

const maxBlobBytes = 2 << 20

func (h *Handler) GetBlob(c echo.Context) error {
	obj, err := h.blobs.Open(c.Request().Context(), c.Param("container"), c.Param("name"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, obj.ContentType, obj.Data)
}

// PutBlob stores the raw request body under container/name.
func (h *Handler) PutBlob(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBlobBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}
	if len(data) > maxBlobBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "blob too large")
	}
	obj := blob.Object{ContentType: c.Request().Header.Get(echo.HeaderContentType), Data: data}
	if err := h.blobs.Put(c.Request().Context(), c.Param("container"), c.Param("name"), obj); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
