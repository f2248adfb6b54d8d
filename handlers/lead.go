package handlers

import (
	"net/http"

	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

// ListLeads returns leads in scope, newest first, optionally of one ?status=
func (h *Handler) ListLeads(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	scope := listScope(c, a)
	var leads []models.Lead
	if status := c.QueryParam("status"); status != "" {
		leads, err = h.svc.Leads.ByStatus(ctx, scope, models.LeadStatus(status))
	} else {
		leads, err = h.svc.Leads.List(ctx, scope)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leads)
}

// CreateLead registers a new lead
func (h *Handler) CreateLead(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in services.LeadInput
	if err := bind(c, &in); err != nil {
		return err
	}
	lead, err := h.svc.Leads.Add(c.Request().Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lead)
}

func (h *Handler) GetLead(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	lead, err := h.svc.Leads.Get(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// UpdateLeadStatus moves a lead through intake
func (h *Handler) UpdateLeadStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	lead, err := h.svc.Leads.UpdateStatus(c.Request().Context(), a, id, models.LeadStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

func (h *Handler) DeleteLead(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Leads.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
