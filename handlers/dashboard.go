package handlers

import (
	"net/http"

	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

const recentActivityLimit = 10

// DashboardData is everything the lawyer dashboard shows at once
type DashboardData struct {
	Summary        *services.Summary      `json:"summary"`
	DueSoonDays    int                    `json:"due_soon_days"`
	DueSoon        []deadlineView         `json:"due_soon"`
	Overdue        []deadlineView         `json:"overdue"`
	TodaysLeads    []models.Lead          `json:"todays_leads"`
	RecentActivity []models.ActivityEntry `json:"recent_activity"`
}

// Dashboard returns the summary counts and alert lists for the caller's records
func (h *Handler) Dashboard(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	scope := listScope(c, a)

	summary, err := h.svc.Stats.Summary(ctx, scope)
	if err != nil {
		return err
	}
	days := h.svc.Stats.DueSoonDays()
	dueSoon, err := h.svc.Stats.DueSoon(ctx, scope, days)
	if err != nil {
		return err
	}
	overdue, err := h.svc.Stats.Overdue(ctx, scope)
	if err != nil {
		return err
	}
	leads, err := h.svc.Stats.TodaysLeads(ctx, scope)
	if err != nil {
		return err
	}
	recent, err := h.recentActivity(c, a, recentActivityLimit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, DashboardData{
		Summary:        summary,
		DueSoonDays:    days,
		DueSoon:        deadlineViews(dueSoon),
		Overdue:        deadlineViews(overdue),
		TodaysLeads:    leads,
		RecentActivity: recent,
	})
}

// GeneralDashboard returns the firm-wide counts
func (h *Handler) GeneralDashboard(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.Stats.GeneralSummary(c.Request().Context(), a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Search looks through the caller's cases, deadlines and leads
func (h *Handler) Search(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	results, err := h.svc.Search.Search(c.Request().Context(), listScope(c, a), c.QueryParam("q"), queryInt(c, "limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

// Activity returns the activity log: everything for admins, own entries for lawyers
func (h *Handler) Activity(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	entries, err := h.recentActivity(c, a, queryInt(c, "limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) recentActivity(c echo.Context, a services.Actor, limit int) ([]models.ActivityEntry, error) {
	ctx := c.Request().Context()
	if a.IsAdmin() {
		return h.svc.Activity.Recent(ctx, limit)
	}
	entries, err := h.svc.Activity.ForUser(ctx, a.Username)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
