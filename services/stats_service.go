package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"go.uber.org/zap"
)

// Summary holds the dashboard counters for one scope
type Summary struct {
	Leads      LeadCounts     `json:"leads"`
	Deadlines  DeadlineCounts `json:"deadlines"`
	Cases      CaseCounts     `json:"cases"`
	Activities ActivityCounts `json:"activities"`
}

type LeadCounts struct {
	Total int `json:"total"`
	Today int `json:"today"`
	New   int `json:"new"`
}

type DeadlineCounts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Done    int `json:"done"`
	DueSoon int `json:"due_soon"`
	Overdue int `json:"overdue"`
}

type CaseCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Archived int `json:"archived"`
	Closed   int `json:"closed"`
}

type ActivityCounts struct {
	Total int `json:"total"`
	Today int `json:"today"`
}

// GeneralSummary holds the firm-wide counters shown to admins
type GeneralSummary struct {
	LawyersTotal     int `json:"lawyers_total"`
	LawyersActive    int `json:"lawyers_active"`
	LeadsTotal       int `json:"leads_total"`
	LeadsToday       int `json:"leads_today"`
	DeadlinesTotal   int `json:"deadlines_total"`
	DeadlinesOverdue int `json:"deadlines_overdue"`
	CasesTotal       int `json:"cases_total"`
	CasesActive      int `json:"cases_active"`
}

// StatsService derives dashboard figures from the record store.
// Nothing is cached; every call reads current data.
type StatsService struct {
	store       *db.Store
	logger      *zap.Logger
	dueSoonDays int
	now         func() time.Time
}

// NewStatsService creates a stats service. dueSoonDays is the default alert horizon.
func NewStatsService(store *db.Store, logger *zap.Logger, dueSoonDays int) *StatsService {
	return &StatsService{store: store, logger: logger, dueSoonDays: dueSoonDays, now: time.Now}
}

// DueSoonDays returns the default alert horizon
func (s *StatsService) DueSoonDays() int {
	return s.dueSoonDays
}

// DueSoon returns pending deadlines due within [now, now+days*24h], soonest first
func (s *StatsService) DueSoon(ctx context.Context, scope Scope, days int) ([]models.Deadline, error) {
	deadlines, err := s.pending(ctx, scope)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := dueSoon(deadlines, now, dueSoonHorizon(now, days))
	sortDeadlines(out)
	return out, nil
}

// Overdue returns pending deadlines due before now, oldest first
func (s *StatsService) Overdue(ctx context.Context, scope Scope) ([]models.Deadline, error) {
	deadlines, err := s.pending(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := overdue(deadlines, s.now())
	sortDeadlines(out)
	return out, nil
}

func (s *StatsService) pending(ctx context.Context, scope Scope) ([]models.Deadline, error) {
	deadlines, err := scopedWhere(ctx, s.store.Deadlines, scope, db.Filter{"status": models.DeadlineStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to read deadlines: %w", err)
	}
	return deadlines, nil
}

// TodaysLeads returns leads created on the current local calendar day, newest first
func (s *StatsService) TodaysLeads(ctx context.Context, scope Scope) ([]models.Lead, error) {
	leads, err := scoped(ctx, s.store.Leads, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}
	out := leadsOnDay(leads, s.now())
	sortLeads(out)
	return out, nil
}

// Summary aggregates the dashboard counters for scope
func (s *StatsService) Summary(ctx context.Context, scope Scope) (*Summary, error) {
	now := s.now()

	leads, err := scoped(ctx, s.store.Leads, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}
	deadlines, err := scoped(ctx, s.store.Deadlines, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read deadlines: %w", err)
	}
	cases, err := scoped(ctx, s.store.Cases, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}
	activities, err := s.activitiesFor(ctx, scope)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}

	sum.Leads.Total = len(leads)
	sum.Leads.Today = len(leadsOnDay(leads, now))
	for _, l := range leads {
		if l.Status == models.LeadStatusNew {
			sum.Leads.New++
		}
	}

	sum.Deadlines.Total = len(deadlines)
	for _, d := range deadlines {
		if d.IsPending() {
			sum.Deadlines.Pending++
		} else {
			sum.Deadlines.Done++
		}
	}
	sum.Deadlines.DueSoon = len(dueSoon(deadlines, now, dueSoonHorizon(now, s.dueSoonDays)))
	sum.Deadlines.Overdue = len(overdue(deadlines, now))

	sum.Cases.Total = len(cases)
	for _, c := range cases {
		switch c.Status {
		case models.CaseStatusActive:
			sum.Cases.Active++
		case models.CaseStatusArchived:
			sum.Cases.Archived++
		case models.CaseStatusClosed:
			sum.Cases.Closed++
		}
	}

	start := startOfDay(now)
	sum.Activities.Total = len(activities)
	for _, a := range activities {
		if !a.CreatedAt.Before(start) {
			sum.Activities.Today++
		}
	}

	return sum, nil
}

func (s *StatsService) activitiesFor(ctx context.Context, scope Scope) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	var err error
	if scope.All {
		entries, err = s.store.Activities.All(ctx)
	} else {
		entries, err = s.store.Activities.List(ctx, "actor", scope.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	return entries, nil
}

// GeneralSummary aggregates firm-wide counters. Admin only.
func (s *StatsService) GeneralSummary(ctx context.Context, actor Actor) (*GeneralSummary, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	lawyers, err := s.store.Lawyers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read lawyers: %w", err)
	}
	sum, err := s.Summary(ctx, AllLawyers())
	if err != nil {
		return nil, err
	}

	general := &GeneralSummary{
		LawyersTotal:     len(lawyers),
		LeadsTotal:       sum.Leads.Total,
		LeadsToday:       sum.Leads.Today,
		DeadlinesTotal:   sum.Deadlines.Total,
		DeadlinesOverdue: sum.Deadlines.Overdue,
		CasesTotal:       sum.Cases.Total,
		CasesActive:      sum.Cases.Active,
	}
	for _, l := range lawyers {
		if l.IsActive() {
			general.LawyersActive++
		}
	}
	return general, nil
}

// DaysRemaining counts whole days left until due, rounding up. Past dates give negative values.
func DaysRemaining(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// dueSoonHorizon counts days as 24 hour spans, so the window shifts by an hour across DST changes
func dueSoonHorizon(now time.Time, days int) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}

func dueSoon(deadlines []models.Deadline, from, to time.Time) []models.Deadline {
	out := []models.Deadline{}
	for _, d := range deadlines {
		if d.IsPending() && !d.DueAt.Before(from) && !d.DueAt.After(to) {
			out = append(out, d)
		}
	}
	return out
}

func overdue(deadlines []models.Deadline, now time.Time) []models.Deadline {
	out := []models.Deadline{}
	for _, d := range deadlines {
		if d.IsPending() && d.DueAt.Before(now) {
			out = append(out, d)
		}
	}
	return out
}
