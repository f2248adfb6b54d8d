package middleware

import (
	"net/http"
	"time"

	"mps_intranet_go/config"
	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName carries the browser token
	SessionCookieName = "mps_adv_session"
	// ContextKeySession is the context key for the session manager
	ContextKeySession = "session"
	// ContextKeyConfig is the context key for the loaded config
	ContextKeyConfig = "config"
)

// RequireAuth restores the browser's session and rejects the request when it is missing or expired
func RequireAuth(provider *services.SessionProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			session := provider.ForToken(cookie.Value)
			ok, err := session.Restore(c.Request().Context())
			if err != nil {
				return err
			}
			if !ok {
				ClearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired")
			}

			if err := session.TouchActivity(c.Request().Context()); err != nil {
				return err
			}

			c.Set(ContextKeySession, session)
			return next(c)
		}
	}
}

// RequirePermission only lets through sessions holding p. Admins pass every check.
func RequirePermission(p models.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			if !session.HasPermission(p) && !session.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireAdmin only lets through admin sessions
func RequireAdmin() echo.MiddlewareFunc {
	return RequirePermission(models.PermissionAdmin)
}

// GetSession retrieves the session manager from context
func GetSession(c echo.Context) *services.SessionManager {
	session, ok := c.Get(ContextKeySession).(*services.SessionManager)
	if !ok {
		return nil
	}
	return session
}

// GetActor returns the session user as a service actor
func GetActor(c echo.Context) (services.Actor, error) {
	session := GetSession(c)
	if session == nil {
		return services.Actor{}, services.ErrNotLoggedIn
	}
	return session.Actor()
}

// SetSessionCookie stores the browser token for the length of a session
func SetSessionCookie(c echo.Context, token string, timeout time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(timeout.Seconds()),
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// WithConfig exposes the config to later middleware and handlers
func WithConfig(cfg *config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyConfig, cfg)
			return next(c)
		}
	}
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get(ContextKeyConfig).(*config.Config)
	return ok && cfg.IsProduction()
}
