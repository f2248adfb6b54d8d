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

// LeadInput is a new inbound referral
type LeadInput struct {
	Lawyer      string `json:"lawyer"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email"`
	CaseType    string `json:"case_type"`
	Description string `json:"description"`
}

// LeadService manages lead intake
type LeadService struct {
	recordService
	maxPerDay int
}

// NewLeadService creates a lead service. maxPerDay of zero disables the daily quota.
func NewLeadService(store *db.Store, logger *zap.Logger, maxPerDay int) *LeadService {
	return &LeadService{recordService: newRecordService(store, logger), maxPerDay: maxPerDay}
}

// Add registers a lead as new. Non-admins can only add leads for themselves.
func (s *LeadService) Add(ctx context.Context, actor Actor, in LeadInput) (*models.Lead, error) {
	if err := actor.require(models.PermissionLeads); err != nil {
		return nil, err
	}
	owner, err := actor.ownerFor(in.Lawyer)
	if err != nil {
		return nil, err
	}

	lead := &models.Lead{
		Lawyer:      owner,
		ClientName:  cleanText(in.ClientName),
		ClientPhone: cleanText(in.ClientPhone),
		ClientEmail: cleanText(in.ClientEmail),
		CaseType:    cleanText(in.CaseType),
		Description: cleanText(in.Description),
		Status:      models.LeadStatusNew,
	}
	if lead.ClientName == "" {
		return nil, validationError("client_name", "is required")
	}
	if lead.CaseType == "" {
		return nil, validationError("case_type", "is required")
	}

	err = s.mutate(ctx, actor.Username, models.ActivityLeadAdded, func(tx *db.Store, now time.Time) (string, error) {
		if err := s.checkQuota(ctx, tx, owner, now); err != nil {
			return "", err
		}
		if err := requireLawyer(ctx, tx, owner); err != nil {
			return "", err
		}
		lead.CreatedAt = now
		lead.UpdatedAt = now
		if err := tx.Leads.Add(ctx, lead); err != nil {
			return "", err
		}
		return fmt.Sprintf("lead #%d added: %s (%s)", lead.ID, lead.ClientName, lead.CaseType), nil
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) checkQuota(ctx context.Context, tx *db.Store, owner string, now time.Time) error {
	if s.maxPerDay <= 0 {
		return nil
	}
	leads, err := tx.Leads.List(ctx, "lawyer", owner)
	if err != nil {
		return err
	}
	if len(leadsOnDay(leads, now)) >= s.maxPerDay {
		return ErrLeadQuotaExceeded
	}
	return nil
}

// List returns the leads in scope, newest first
func (s *LeadService) List(ctx context.Context, scope Scope) ([]models.Lead, error) {
	leads, err := scoped(ctx, s.store.Leads, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	sortLeads(leads)
	return leads, nil
}

// ByStatus returns the leads in scope with the given status, newest first
func (s *LeadService) ByStatus(ctx context.Context, scope Scope, status models.LeadStatus) ([]models.Lead, error) {
	if !status.Valid() {
		return nil, validationError("status", fmt.Sprintf("%q is not a lead status", status))
	}
	leads, err := scopedWhere(ctx, s.store.Leads, scope, db.Filter{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	sortLeads(leads)
	return leads, nil
}

// Get returns a lead the actor may see
func (s *LeadService) Get(ctx context.Context, actor Actor, id uint) (*models.Lead, error) {
	lead, ok, err := s.store.Leads.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: lead %d", db.ErrNotFound, id)
	}
	if err := actor.canTouch(lead.Lawyer); err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateStatus moves a lead through the intake pipeline
func (s *LeadService) UpdateStatus(ctx context.Context, actor Actor, id uint, status models.LeadStatus) (*models.Lead, error) {
	if !status.Valid() {
		return nil, validationError("status", fmt.Sprintf("%q is not a lead status", status))
	}
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	var updated *models.Lead
	err := s.mutate(ctx, actor.Username, models.ActivityLeadUpdated, func(tx *db.Store, now time.Time) (string, error) {
		var err error
		updated, err = tx.Leads.Update(ctx, id, func(l *models.Lead) {
			l.Status = status
			l.UpdatedAt = now
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("lead #%d status set to %s", id, status), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a lead. Deleting a missing lead succeeds and logs nothing.
func (s *LeadService) Delete(ctx context.Context, actor Actor, id uint) error {
	lead, ok, err := s.store.Leads.Get(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := actor.canTouch(lead.Lawyer); err != nil {
		return err
	}

	return s.mutate(ctx, actor.Username, models.ActivityLeadDeleted, func(tx *db.Store, _ time.Time) (string, error) {
		if err := tx.Leads.Delete(ctx, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("lead #%d deleted: %s", id, lead.ClientName), nil
	})
}

// leadsOnDay keeps the leads created on day's local calendar day
func leadsOnDay(leads []models.Lead, day time.Time) []models.Lead {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)
	out := []models.Lead{}
	for _, l := range leads {
		created := l.CreatedAt.In(day.Location())
		if !created.Before(start) && created.Before(end) {
			out = append(out, l)
		}
	}
	return out
}

func sortLeads(leads []models.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].CreatedAt.After(leads[j].CreatedAt)
		}
		return leads[i].ID > leads[j].ID
	})
}
