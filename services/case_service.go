package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"go.uber.org/zap"
)

// CaseInput is a new legal matter
type CaseInput struct {
	Number      string  `json:"number"`
	Lawyer      string  `json:"lawyer"`
	ClientName  string  `json:"client_name"`
	Area        string  `json:"area"`
	Court       string  `json:"court"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// CaseChanges patches a case. Nil fields are left alone.
// Only admins may change Lawyer.
type CaseChanges struct {
	Number      *string  `json:"number"`
	Lawyer      *string  `json:"lawyer"`
	ClientName  *string  `json:"client_name"`
	Area        *string  `json:"area"`
	Court       *string  `json:"court"`
	Value       *float64 `json:"value"`
	Description *string  `json:"description"`
}

// CaseService manages case records
type CaseService struct {
	recordService
}

func NewCaseService(store *db.Store, logger *zap.Logger) *CaseService {
	return &CaseService{recordService: newRecordService(store, logger)}
}

// Add registers an active case. The case number must be unused.
func (s *CaseService) Add(ctx context.Context, actor Actor, in CaseInput) (*models.Case, error) {
	if err := actor.require(models.PermissionCases); err != nil {
		return nil, err
	}
	owner, err := actor.ownerFor(in.Lawyer)
	if err != nil {
		return nil, err
	}

	c := &models.Case{
		Number:      strings.TrimSpace(in.Number),
		Lawyer:      owner,
		ClientName:  cleanText(in.ClientName),
		Area:        cleanText(in.Area),
		Court:       cleanText(in.Court),
		Value:       in.Value,
		Description: cleanText(in.Description),
		Status:      models.CaseStatusActive,
	}
	if err := validateCase(c); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, actor.Username, models.ActivityCaseAdded, func(tx *db.Store, now time.Time) (string, error) {
		if err := requireLawyer(ctx, tx, owner); err != nil {
			return "", err
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		if err := tx.Cases.Add(ctx, c); err != nil {
			return "", err
		}
		return fmt.Sprintf("case %s added for %s", c.Number, c.ClientName), nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func validateCase(c *models.Case) error {
	if c.Number == "" {
		return validationError("number", "is required")
	}
	if c.ClientName == "" {
		return validationError("client_name", "is required")
	}
	if c.Value < 0 {
		return validationError("value", "cannot be negative")
	}
	return nil
}

// List returns the cases in scope, newest first
func (s *CaseService) List(ctx context.Context, scope Scope) ([]models.Case, error) {
	cases, err := scoped(ctx, s.store.Cases, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	sortCases(cases)
	return cases, nil
}

// ByStatus returns the cases in scope with the given status, newest first
func (s *CaseService) ByStatus(ctx context.Context, scope Scope, status models.CaseStatus) ([]models.Case, error) {
	if !status.Valid() {
		return nil, validationError("status", fmt.Sprintf("%q is not a case status", status))
	}
	cases, err := scopedWhere(ctx, s.store.Cases, scope, db.Filter{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	sortCases(cases)
	return cases, nil
}

// Get returns a case the actor may see
func (s *CaseService) Get(ctx context.Context, actor Actor, id uint) (*models.Case, error) {
	c, ok, err := s.store.Cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: case %d", db.ErrNotFound, id)
	}
	if err := actor.canTouch(c.Lawyer); err != nil {
		return nil, err
	}
	return c, nil
}

// ByNumber looks a case up by its case number
func (s *CaseService) ByNumber(ctx context.Context, actor Actor, number string) (*models.Case, error) {
	found, err := s.store.Cases.List(ctx, "number", strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: case %s", db.ErrNotFound, number)
	}
	if err := actor.canTouch(found[0].Lawyer); err != nil {
		return nil, err
	}
	return &found[0], nil
}

// Update edits a case. Reassigning it to another lawyer requires admin.
func (s *CaseService) Update(ctx context.Context, actor Actor, id uint, changes CaseChanges) (*models.Case, error) {
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if changes.Lawyer != nil && *changes.Lawyer != current.Lawyer && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var updated *models.Case
	err = s.mutate(ctx, actor.Username, models.ActivityCaseUpdated, func(tx *db.Store, now time.Time) (string, error) {
		if changes.Lawyer != nil {
			if err := requireLawyer(ctx, tx, *changes.Lawyer); err != nil {
				return "", err
			}
		}

		var invalid error
		var err error
		updated, err = tx.Cases.Update(ctx, id, func(c *models.Case) {
			if changes.Number != nil {
				c.Number = strings.TrimSpace(*changes.Number)
			}
			if changes.Lawyer != nil {
				c.Lawyer = *changes.Lawyer
			}
			if changes.ClientName != nil {
				c.ClientName = cleanText(*changes.ClientName)
			}
			if changes.Area != nil {
				c.Area = cleanText(*changes.Area)
			}
			if changes.Court != nil {
				c.Court = cleanText(*changes.Court)
			}
			if changes.Value != nil {
				c.Value = *changes.Value
			}
			if changes.Description != nil {
				c.Description = cleanText(*changes.Description)
			}
			c.UpdatedAt = now
			invalid = validateCase(c)
		})
		if err != nil {
			return "", err
		}
		if invalid != nil {
			return "", invalid
		}
		return fmt.Sprintf("case %s updated", updated.Number), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus changes the case status
func (s *CaseService) UpdateStatus(ctx context.Context, actor Actor, id uint, status models.CaseStatus) (*models.Case, error) {
	if !status.Valid() {
		return nil, validationError("status", fmt.Sprintf("%q is not a case status", status))
	}
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	var updated *models.Case
	err := s.mutate(ctx, actor.Username, models.ActivityCaseUpdated, func(tx *db.Store, now time.Time) (string, error) {
		var err error
		updated, err = tx.Cases.Update(ctx, id, func(c *models.Case) {
			c.Status = status
			c.UpdatedAt = now
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("case %s status set to %s", updated.Number, status), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a case and unlinks its documents. Deleting a missing case succeeds.
func (s *CaseService) Delete(ctx context.Context, actor Actor, id uint) error {
	c, ok, err := s.store.Cases.Get(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := actor.canTouch(c.Lawyer); err != nil {
		return err
	}

	return s.mutate(ctx, actor.Username, models.ActivityCaseDeleted, func(tx *db.Store, now time.Time) (string, error) {
		docs, err := tx.Documents.List(ctx, "case", id)
		if err != nil {
			return "", err
		}
		for _, doc := range docs {
			if _, err := tx.Documents.Update(ctx, doc.ID, func(d *models.Document) {
				d.CaseID = nil
				d.UpdatedAt = now
			}); err != nil {
				return "", err
			}
		}
		if err := tx.Cases.Delete(ctx, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("case %s deleted", c.Number), nil
	})
}

func sortCases(cases []models.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.After(cases[j].CreatedAt)
		}
		return cases[i].ID > cases[j].ID
	})
}
