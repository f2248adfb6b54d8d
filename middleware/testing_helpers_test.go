package middleware

import (
	"context"
	"testing"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/services"

	"github.com/google/uuid"
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

// setupProvider builds a session provider over a seeded in-memory database
func setupProvider(t *testing.T, timeout time.Duration) *services.SessionProvider {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	dsn := "file:mw_" + uuid.New().String() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := db.NewStore(ctx, gdb)
	require.NoError(t, err)
	sessions, err := services.NewDBSessionStore(ctx, gdb)
	require.NoError(t, err)

	activity := services.NewActivityLog(store, log)
	_, err = services.SeedLawyers(ctx, services.NewLawyerService(store, log), activity, "", log)
	require.NoError(t, err)

	return services.NewSessionProvider(store, sessions, activity, log, services.SessionOptions{Timeout: timeout})
}

// loginToken logs username in and returns the browser token
func loginToken(t *testing.T, provider *services.SessionProvider, username, password string) string {
	t.Helper()
	token := provider.NewToken()
	require.NoError(t, provider.ForToken(token).Login(context.Background(), username, password))
	return token
}
