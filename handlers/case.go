package handlers

import (
	"net/http"

	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

// caseDetail is a case with its linked documents
type caseDetail struct {
	*models.Case
	Documents []models.Document `json:"documents"`
}

// ListCases returns cases in scope, newest first. ?number= looks up one case by its number
// and ?status= keeps one status.
func (h *Handler) ListCases(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if number := c.QueryParam("number"); number != "" {
		found, err := h.svc.Cases.ByNumber(ctx, a, number)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, []models.Case{*found})
	}

	scope := listScope(c, a)
	var cases []models.Case
	if status := c.QueryParam("status"); status != "" {
		cases, err = h.svc.Cases.ByStatus(ctx, scope, models.CaseStatus(status))
	} else {
		cases, err = h.svc.Cases.List(ctx, scope)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cases)
}

func (h *Handler) CreateCase(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in services.CaseInput
	if err := bind(c, &in); err != nil {
		return err
	}
	created, err := h.svc.Cases.Add(c.Request().Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// GetCase returns one case and the documents linked to it
func (h *Handler) GetCase(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	found, err := h.svc.Cases.Get(ctx, a, id)
	if err != nil {
		return err
	}
	docs, err := h.svc.Documents.ForCase(ctx, services.AllLawyers(), found.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, caseDetail{Case: found, Documents: docs})
}

func (h *Handler) UpdateCase(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var changes services.CaseChanges
	if err := bind(c, &changes); err != nil {
		return err
	}
	updated, err := h.svc.Cases.Update(c.Request().Context(), a, id, changes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) UpdateCaseStatus(c echo.Context) error {
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
	updated, err := h.svc.Cases.UpdateStatus(c.Request().Context(), a, id, models.CaseStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteCase removes a case. Linked documents are kept and unlinked.
func (h *Handler) DeleteCase(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Cases.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
