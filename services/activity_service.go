package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"go.uber.org/zap"
)

// ActivityLog appends and reads the user activity trail
type ActivityLog struct {
	store  *db.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewActivityLog creates an activity log over the record store
func NewActivityLog(store *db.Store, logger *zap.Logger) *ActivityLog {
	return &ActivityLog{store: store, logger: logger, now: time.Now}
}

// Record appends one entry stamped with the current time
func (l *ActivityLog) Record(ctx context.Context, kind models.ActivityKind, description, actor string) (*models.ActivityEntry, error) {
	entry, err := appendActivity(ctx, l.store, l.now(), kind, description, actor)
	if err != nil {
		l.logger.Error("activity write failed",
			zap.String("kind", string(kind)),
			zap.String("actor", actor),
			zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// Recent returns the latest limit entries, newest first. A limit of zero or less returns all.
func (l *ActivityLog) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	entries, err := l.store.Activities.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	sortActivity(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ForUser returns one actor's entries, newest first
func (l *ActivityLog) ForUser(ctx context.Context, username string) ([]models.ActivityEntry, error) {
	entries, err := l.store.Activities.List(ctx, "actor", username)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity for %s: %w", username, err)
	}
	sortActivity(entries)
	return entries, nil
}

// appendActivity writes an entry through tx, which may be the store or a transaction bound to it
func appendActivity(ctx context.Context, tx *db.Store, at time.Time, kind models.ActivityKind, description, actor string) (*models.ActivityEntry, error) {
	entry := &models.ActivityEntry{
		Actor:       actor,
		Kind:        kind,
		Description: description,
		CreatedAt:   at,
	}
	if err := tx.Activities.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record %s activity: %w", kind, err)
	}
	return entry, nil
}

func sortActivity(entries []models.ActivityEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}
