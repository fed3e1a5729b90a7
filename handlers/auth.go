package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin validates credentials and returns a JWT valid for 30 days.
func (h *Handler) Signin(c echo.Context) error {
	var creds credentials
	if err := bind(c, &creds); err != nil {
		return err
	}
	token, err := h.auth.Signin(c.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// RequestPasswordReset always answers 202 so addresses cannot be probed.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResetPassword(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Claim turns an invitation link into a login for the invited player.
func (h *Handler) Claim(c echo.Context) error {
	var creds credentials
	if err := bind(c, &creds); err != nil {
		return err
	}
	u, err := h.players.Claim(c.Request().Context(), c.Param("token"), creds.Email, creds.Password)
	if err != nil {
		return err
	}
	token, err := h.auth.Signin(c.Request().Context(), creds.Email, creds.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"userId": u.ID, "playerId": u.PlayerID, "token": token})
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	if err := h.players.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
