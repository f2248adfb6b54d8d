package handlers

import (
	"net/http"
	"time"

	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

// deadlineView adds the days left until the due date
type deadlineView struct {
	models.Deadline
	DaysRemaining int `json:"days_remaining"`
}

// deadlineRequest accepts the due date as a string so plain dates from HTML inputs work
type deadlineRequest struct {
	services.DeadlineInput
	DueAt string `json:"due_at"`
}

type deadlineChangesRequest struct {
	services.DeadlineChanges
	DueAt *string `json:"due_at"`
}

func deadlineViews(deadlines []models.Deadline) []deadlineView {
	now := time.Now()
	out := make([]deadlineView, len(deadlines))
	for i, d := range deadlines {
		out[i] = deadlineView{Deadline: d, DaysRemaining: services.DaysRemaining(now, d.DueAt)}
	}
	return out
}

// ListDeadlines returns deadlines in scope, earliest due first
func (h *Handler) ListDeadlines(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	deadlines, err := h.svc.Deadlines.List(c.Request().Context(), listScope(c, a))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deadlineViews(deadlines))
}

func (h *Handler) CreateDeadline(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req deadlineRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in := req.DeadlineInput
	if req.DueAt != "" {
		if in.DueAt, err = services.ParseDueDate(req.DueAt, time.Local); err != nil {
			return err
		}
	}
	deadline, err := h.svc.Deadlines.Add(c.Request().Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, deadline)
}

// DueSoonDeadlines returns pending deadlines due within ?days= (default from config)
func (h *Handler) DueSoonDeadlines(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	days := queryInt(c, "days", h.svc.Stats.DueSoonDays())
	if days < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "days cannot be negative")
	}
	deadlines, err := h.svc.Stats.DueSoon(c.Request().Context(), listScope(c, a), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deadlineViews(deadlines))
}

func (h *Handler) OverdueDeadlines(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	deadlines, err := h.svc.Stats.Overdue(c.Request().Context(), listScope(c, a))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deadlineViews(deadlines))
}

func (h *Handler) UpdateDeadline(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req deadlineChangesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	changes := req.DeadlineChanges
	if req.DueAt != nil {
		due, err := services.ParseDueDate(*req.DueAt, time.Local)
		if err != nil {
			return err
		}
		changes.DueAt = &due
	}
	deadline, err := h.svc.Deadlines.Update(c.Request().Context(), a, id, changes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deadline)
}

// CompleteDeadline marks a pending deadline done
func (h *Handler) CompleteDeadline(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	deadline, err := h.svc.Deadlines.Complete(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deadline)
}

func (h *Handler) DeleteDeadline(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Deadlines.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
