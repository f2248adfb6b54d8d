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

// DeadlineInput is a new dated obligation
type DeadlineInput struct {
	Lawyer      string              `json:"lawyer"`
	CaseNumber  string              `json:"case_number"`
	ClientName  string              `json:"client_name"`
	Type        models.DeadlineType `json:"type"`
	Description string              `json:"description"`
	DueAt       time.Time           `json:"due_at"`
	Priority    models.Priority     `json:"priority"`
}

// DeadlineChanges patches a deadline. Nil fields are left alone.
// Status and owner are not editable here.
type DeadlineChanges struct {
	CaseNumber  *string              `json:"case_number"`
	ClientName  *string              `json:"client_name"`
	Type        *models.DeadlineType `json:"type"`
	Description *string              `json:"description"`
	DueAt       *time.Time           `json:"due_at"`
	Priority    *models.Priority     `json:"priority"`
}

// DeadlineService manages deadlines
type DeadlineService struct {
	recordService
}

func NewDeadlineService(store *db.Store, logger *zap.Logger) *DeadlineService {
	return &DeadlineService{recordService: newRecordService(store, logger)}
}

// Add registers a pending deadline
func (s *DeadlineService) Add(ctx context.Context, actor Actor, in DeadlineInput) (*models.Deadline, error) {
	if err := actor.require(models.PermissionDeadlines); err != nil {
		return nil, err
	}
	owner, err := actor.ownerFor(in.Lawyer)
	if err != nil {
		return nil, err
	}

	d := &models.Deadline{
		Lawyer:      owner,
		CaseNumber:  cleanText(in.CaseNumber),
		ClientName:  cleanText(in.ClientName),
		Type:        in.Type,
		Description: cleanText(in.Description),
		DueAt:       in.DueAt,
		Priority:    in.Priority,
		Status:      models.DeadlineStatusPending,
	}
	if d.Type == "" {
		d.Type = models.DeadlineTypeOther
	}
	if d.Priority == "" {
		d.Priority = models.PriorityNormal
	}
	if err := validateDeadline(d); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, actor.Username, models.ActivityDeadlineAdded, func(tx *db.Store, now time.Time) (string, error) {
		if err := requireLawyer(ctx, tx, owner); err != nil {
			return "", err
		}
		d.CreatedAt = now
		d.UpdatedAt = now
		if err := tx.Deadlines.Add(ctx, d); err != nil {
			return "", err
		}
		return fmt.Sprintf("deadline #%d added: %s due %s", d.ID, d.Description, d.DueAt.Format("2006-01-02 15:04")), nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func validateDeadline(d *models.Deadline) error {
	if d.Description == "" {
		return validationError("description", "is required")
	}
	if d.DueAt.IsZero() {
		return validationError("due_at", "is required")
	}
	if !d.Type.Valid() {
		return validationError("type", fmt.Sprintf("%q is not a deadline type", d.Type))
	}
	if !d.Priority.Valid() {
		return validationError("priority", fmt.Sprintf("%q is not a priority", d.Priority))
	}
	return nil
}

// List returns the deadlines in scope, soonest first
func (s *DeadlineService) List(ctx context.Context, scope Scope) ([]models.Deadline, error) {
	deadlines, err := scoped(ctx, s.store.Deadlines, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	sortDeadlines(deadlines)
	return deadlines, nil
}

// Get returns a deadline the actor may see
func (s *DeadlineService) Get(ctx context.Context, actor Actor, id uint) (*models.Deadline, error) {
	d, ok, err := s.store.Deadlines.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: deadline %d", db.ErrNotFound, id)
	}
	if err := actor.canTouch(d.Lawyer); err != nil {
		return nil, err
	}
	return d, nil
}

// Update edits the descriptive fields of a deadline
func (s *DeadlineService) Update(ctx context.Context, actor Actor, id uint, changes DeadlineChanges) (*models.Deadline, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	var updated *models.Deadline
	err := s.mutate(ctx, actor.Username, models.ActivityDeadlineUpdated, func(tx *db.Store, now time.Time) (string, error) {
		var invalid error
		var err error
		updated, err = tx.Deadlines.Update(ctx, id, func(d *models.Deadline) {
			if changes.CaseNumber != nil {
				d.CaseNumber = cleanText(*changes.CaseNumber)
			}
			if changes.ClientName != nil {
				d.ClientName = cleanText(*changes.ClientName)
			}
			if changes.Type != nil {
				d.Type = *changes.Type
			}
			if changes.Description != nil {
				d.Description = cleanText(*changes.Description)
			}
			if changes.DueAt != nil {
				d.DueAt = *changes.DueAt
			}
			if changes.Priority != nil {
				d.Priority = *changes.Priority
			}
			d.UpdatedAt = now
			invalid = validateDeadline(d)
		})
		if err != nil {
			return "", err
		}
		if invalid != nil {
			return "", invalid
		}
		return fmt.Sprintf("deadline #%d updated", id), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete marks a pending deadline done. Done deadlines cannot be completed again.
func (s *DeadlineService) Complete(ctx context.Context, actor Actor, id uint) (*models.Deadline, error) {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !current.IsPending() {
		return nil, fmt.Errorf("%w: deadline %d is already %s", ErrInvalidTransition, id, current.Status)
	}

	var updated *models.Deadline
	err = s.mutate(ctx, actor.Username, models.ActivityDeadlineCompleted, func(tx *db.Store, now time.Time) (string, error) {
		var err error
		updated, err = tx.Deadlines.Update(ctx, id, func(d *models.Deadline) {
			completed := now
			d.Status = models.DeadlineStatusDone
			d.CompletedAt = &completed
			d.UpdatedAt = now
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("deadline #%d completed: %s", id, updated.Description), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a deadline. Deleting a missing deadline succeeds and logs nothing.
func (s *DeadlineService) Delete(ctx context.Context, actor Actor, id uint) error {
	d, ok, err := s.store.Deadlines.Get(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := actor.canTouch(d.Lawyer); err != nil {
		return err
	}

	return s.mutate(ctx, actor.Username, models.ActivityDeadlineDeleted, func(tx *db.Store, _ time.Time) (string, error) {
		if err := tx.Deadlines.Delete(ctx, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("deadline #%d deleted: %s", id, d.Description), nil
	})
}

func sortDeadlines(deadlines []models.Deadline) {
	sort.SliceStable(deadlines, func(i, j int) bool {
		if !deadlines[i].DueAt.Equal(deadlines[j].DueAt) {
			return deadlines[i].DueAt.Before(deadlines[j].DueAt)
		}
		return deadlines[i].ID < deadlines[j].ID
	})
}
