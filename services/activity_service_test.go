package services

import (
	"context"
	"testing"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestActivityLog(t *testing.T) {
	ctx := context.Background()
	store, err := db.NewStore(ctx, setupTestDB(t))
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	log := NewActivityLog(store, zap.NewNop())
	log.now = clock.Now

	_, err = log.Record(ctx, models.ActivityLogin, "logged in", "adv01")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = log.Record(ctx, models.ActivityLeadAdded, "lead #1 added", "adv02")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	last, err := log.Record(ctx, models.ActivityLogout, "logged out", "adv01")
	require.NoError(t, err)

	t.Run("recent is newest first", func(t *testing.T) {
		entries, err := log.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, last.ID, entries[0].ID)
		assert.Equal(t, models.ActivityLeadAdded, entries[1].Kind)
	})

	t.Run("no limit returns everything", func(t *testing.T) {
		entries, err := log.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("for user", func(t *testing.T) {
		entries, err := log.ForUser(ctx, "adv01")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.ActivityLogout, entries[0].Kind)
		assert.Equal(t, models.ActivityLogin, entries[1].Kind)
	})

	t.Run("same timestamp falls back to id", func(t *testing.T) {
		a, err := log.Record(ctx, models.ActivityCaseAdded, "a", "adv03")
		require.NoError(t, err)
		b, err := log.Record(ctx, models.ActivityCaseAdded, "b", "adv03")
		require.NoError(t, err)

		entries, err := log.ForUser(ctx, "adv03")
		require.NoError(t, err)
		assert.Equal(t, []uint{b.ID, a.ID}, []uint{entries[0].ID, entries[1].ID})
	})
}
