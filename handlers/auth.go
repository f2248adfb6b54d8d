package handlers

import (
	"net/http"
	"strings"
	"time"

	"mps_intranet_go/middleware"
	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// meResponse is the session user plus session timing
type meResponse struct {
	User            models.LawyerSnapshot `json:"user"`
	SessionStart    time.Time             `json:"session_start"`
	SessionDuration int64                 `json:"session_duration_seconds"`
	IsAdmin         bool                  `json:"is_admin"`
}

// Login checks the credentials and sets the session cookie
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required")
	}

	token := h.svc.Sessions.NewToken()
	session := h.svc.Sessions.ForToken(token)
	if err := session.Login(c.Request().Context(), username, req.Password); err != nil {
		return err
	}

	middleware.SetSessionCookie(c, token, h.timeout)
	return c.JSON(http.StatusOK, h.me(session))
}

// Logout ends the browser's session. Logging out without a session still clears the cookie.
func (h *Handler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c)

	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return c.NoContent(http.StatusNoContent)
	}

	ctx := c.Request().Context()
	session := h.svc.Sessions.ForToken(cookie.Value)
	if _, err := session.Restore(ctx); err != nil {
		return err
	}
	if err := session.Logout(ctx); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the session user
func (h *Handler) Me(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, h.me(session))
}

// ChangePassword replaces the session user's password
func (h *Handler) ChangePassword(c echo.Context) error {
	session := middleware.GetSession(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := session.ChangePassword(c.Request().Context(), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	user, _ := session.User()
	h.logger.Info("password changed", zap.String("username", user.Username))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) me(session *services.SessionManager) meResponse {
	user, _ := session.User()
	return meResponse{
		User:            user,
		SessionStart:    user.LoginTime,
		SessionDuration: int64(session.SessionDuration().Seconds()),
		IsAdmin:         session.IsAdmin(),
	}
}
