package services

import (
	"context"
	"testing"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

// testClock is a settable clock shared by every service of a fixture
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:svc_" + uuid.New().String() + "?mode=memory&cache=shared"
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

type fixture struct {
	ctx       context.Context
	clock     *testClock
	store     *db.Store
	sessions  *DBSessionStore
	activity  *ActivityLog
	lawyers   *LawyerService
	leads     *LeadService
	deadlines *DeadlineService
	cases     *CaseService
	documents *DocumentService
	stats     *StatsService
	search    *SearchService
	provider  *SessionProvider
}

// newFixture wires every service against a fresh store seeded with the default lawyers
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newEmptyFixture(t)
	_, err := SeedLawyers(f.ctx, f.lawyers, f.activity, "", zap.NewNop())
	require.NoError(t, err)
	return f
}

// newEmptyFixture is newFixture without any lawyers
func newEmptyFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	gdb := setupTestDB(t)
	store, err := db.NewStore(ctx, gdb)
	require.NoError(t, err)
	sessions, err := NewDBSessionStore(ctx, gdb)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)}

	f := &fixture{
		ctx:       ctx,
		clock:     clock,
		store:     store,
		sessions:  sessions,
		activity:  NewActivityLog(store, log),
		lawyers:   NewLawyerService(store, log),
		leads:     NewLeadService(store, log, 10),
		deadlines: NewDeadlineService(store, log),
		cases:     NewCaseService(store, log),
		documents: NewDocumentService(store, log),
		stats:     NewStatsService(store, log, 3),
		search:    NewSearchService(store, log),
	}
	f.activity.now = clock.Now
	f.lawyers.now = clock.Now
	f.leads.now = clock.Now
	f.deadlines.now = clock.Now
	f.cases.now = clock.Now
	f.documents.now = clock.Now
	f.stats.now = clock.Now

	f.provider = NewSessionProvider(store, sessions, f.activity, log, SessionOptions{
		Timeout:          8 * time.Hour,
		LogTimeoutLogout: true,
	})
	f.provider.now = clock.Now
	return f
}

func (f *fixture) actor(t *testing.T, username string) Actor {
	t.Helper()
	l, err := f.lawyers.Get(f.ctx, username)
	require.NoError(t, err)
	return ActorFromSnapshot(l.Snapshot())
}

func (f *fixture) countActivity(t *testing.T, kind models.ActivityKind) int {
	t.Helper()
	n, err := f.store.Activities.Count(f.ctx, "kind", kind)
	require.NoError(t, err)
	return int(n)
}
