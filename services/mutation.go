package services

import (
	"context"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"go.uber.org/zap"
)

// recordService carries what every record service needs
type recordService struct {
	store  *db.Store
	logger *zap.Logger
	now    func() time.Time
}

func newRecordService(store *db.Store, logger *zap.Logger) recordService {
	return recordService{store: store, logger: logger, now: time.Now}
}

// mutate runs change and appends one activity entry for it in a single transaction.
// change returns the entry description.
func (s recordService) mutate(ctx context.Context, actor string, kind models.ActivityKind, change func(tx *db.Store, now time.Time) (string, error)) error {
	now := s.now()
	err := s.store.Transaction(ctx, func(tx *db.Store) error {
		description, err := change(tx, now)
		if err != nil {
			return err
		}
		_, err = appendActivity(ctx, tx, now, kind, description, actor)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Debug("record changed", zap.String("kind", string(kind)), zap.String("actor", actor))
	return nil
}

// requireLawyer fails when owner is not a known lawyer
func requireLawyer(ctx context.Context, tx *db.Store, owner string) error {
	if _, ok, err := tx.Lawyers.Get(ctx, owner); err != nil {
		return err
	} else if !ok {
		return validationError("lawyer", "does not exist")
	}
	return nil
}

// scoped lists a lawyer-owned collection for a scope
func scoped[T any](ctx context.Context, c *db.Collection[T], scope Scope) ([]T, error) {
	return scopedWhere(ctx, c, scope, nil)
}

// scopedWhere is scoped narrowed by further index values
func scopedWhere[T any](ctx context.Context, c *db.Collection[T], scope Scope, filter db.Filter) ([]T, error) {
	match := db.Filter{}
	for name, value := range filter {
		match[name] = value
	}
	if !scope.All {
		match["lawyer"] = scope.Username
	}
	return c.Match(ctx, match)
}

// startOfDay returns local midnight of t's calendar day
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
