package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/middleware"
	"mps_intranet_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	services.BcryptCost = bcrypt.MinCost
}

type testServer struct {
	e       *echo.Echo
	svc     Services
	cookies map[string]*http.Cookie
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:h_" + uuid.New().String() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// newTestServer wires the API over a seeded in-memory store
func newTestServer(t *testing.T, loginLimiter *middleware.RateLimiter) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	gdb := setupTestDB(t)
	store, err := db.NewStore(ctx, gdb)
	require.NoError(t, err)
	sessions, err := services.NewDBSessionStore(ctx, gdb)
	require.NoError(t, err)

	activity := services.NewActivityLog(store, log)
	lawyers := services.NewLawyerService(store, log)
	_, err = services.SeedLawyers(ctx, lawyers, activity, "", log)
	require.NoError(t, err)

	opts := services.SessionOptions{Timeout: 8 * time.Hour, LogTimeoutLogout: true}
	svc := Services{
		Sessions:  services.NewSessionProvider(store, sessions, activity, log, opts),
		Lawyers:   lawyers,
		Leads:     services.NewLeadService(store, log, 3),
		Deadlines: services.NewDeadlineService(store, log),
		Cases:     services.NewCaseService(store, log),
		Documents: services.NewDocumentService(store, log),
		Stats:     services.NewStatsService(store, log, 3),
		Search:    services.NewSearchService(store, log),
		Activity:  activity,
		Backups:   services.NewBackupService(store, activity, services.NewLocalStorage(t.TempDir()), log),
	}

	if loginLimiter == nil {
		loginLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{Requests: 100, Window: time.Minute})
	}
	t.Cleanup(loginLimiter.Close)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log)
	New(svc, log, opts).Register(e, loginLimiter)

	return &testServer{e: e, svc: svc, cookies: map[string]*http.Cookie{}}
}

// do sends a request as username (empty for anonymous) and returns the recorder
func (s *testServer) do(t *testing.T, username, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if username != "" {
		req.AddCookie(s.cookies[username])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

var seedPasswords = map[string]string{
	"adv01": "mps2024",
	"adv02": "mps2024",
	"admin": "admin123",
}

// login logs a seeded lawyer in and keeps their session cookie
func (s *testServer) login(t *testing.T, username string) {
	t.Helper()
	rec := s.do(t, "", http.MethodPost, "/api/login", loginRequest{Username: username, Password: seedPasswords[username]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			s.cookies[username] = c
			return
		}
	}
	t.Fatalf("no session cookie for %s", username)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
