package handlers

import (
	"net/http"

	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

// ListLawyers returns every account, or only active ones with ?status=active
func (h *Handler) ListLawyers(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		lawyers []models.Lawyer
		err     error
	)
	if models.LawyerStatus(c.QueryParam("status")) == models.LawyerStatusActive {
		lawyers, err = h.svc.Lawyers.Active(ctx)
	} else {
		lawyers, err = h.svc.Lawyers.List(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lawyers)
}

func (h *Handler) CreateLawyer(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in services.LawyerInput
	if err := bind(c, &in); err != nil {
		return err
	}
	lawyer, err := h.svc.Lawyers.Create(c.Request().Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lawyer)
}

// UpdateLawyer edits an account. Lawyers may edit their own contact details.
func (h *Handler) UpdateLawyer(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var changes services.LawyerChanges
	if err := bind(c, &changes); err != nil {
		return err
	}
	lawyer, err := h.svc.Lawyers.Update(c.Request().Context(), a, c.Param("username"), changes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lawyer)
}

// SetLawyerStatus activates or deactivates an account
func (h *Handler) SetLawyerStatus(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	lawyer, err := h.svc.Lawyers.SetStatus(c.Request().Context(), a, c.Param("username"), models.LawyerStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lawyer)
}
