package handlers

import (
	"net/http"
	"testing"

	"mps_intranet_go/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("Success", func(t *testing.T) {
		rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: " ADV01 ", Password: "mps2024"})
		require.Equal(t, http.StatusOK, rec.Code)

		me := decode[meResponse](t, rec)
		assert.Equal(t, "adv01", me.User.Username)
		assert.False(t, me.IsAdmin)
		assert.False(t, me.SessionStart.IsZero())

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "adv01", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid username or password", decode[ErrorResponse](t, rec).Error)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("UnknownUser", func(t *testing.T) {
		rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "ghost", Password: "mps2024"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "adv01"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, middleware.NewLoginRateLimiter())

	for i := 0; i < 5; i++ {
		rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "adv01", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}
	rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "adv01", Password: "mps2024"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t, "admin")

	rec := s.do(t, "admin", http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[meResponse](t, rec)
	assert.Equal(t, "admin", me.User.Username)
	assert.True(t, me.IsAdmin)

	rec = s.do(t, "admin", http.MethodPost, "/api/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, "admin", http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	t.Run("AnonymousLogout", func(t *testing.T) {
		rec := s.do(t, "", http.MethodPost, "/api/logout", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		rec := s.do(t, "", http.MethodGet, "/api/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authenticated", decode[ErrorResponse](t, rec).Error)
	})
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t, nil)
	s.login(t, "adv02")

	tests := []struct {
		name       string
		req        changePasswordRequest
		wantStatus int
	}{
		{"wrong current password", changePasswordRequest{CurrentPassword: "bad", NewPassword: "novaSenha"}, http.StatusBadRequest},
		{"too short", changePasswordRequest{CurrentPassword: "mps2024", NewPassword: "abc"}, http.StatusUnprocessableEntity},
		{"success", changePasswordRequest{CurrentPassword: "mps2024", NewPassword: "novaSenha"}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "adv02", http.MethodPost, "/api/me/password", tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "adv02", Password: "mps2024"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: "adv02", Password: "novaSenha"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
