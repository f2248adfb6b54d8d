package handlers

import (
	"net/http"
	"strconv"

	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
)

// ListDocuments returns documents in scope, optionally only those linked to ?case_id= or of one ?type=
func (h *Handler) ListDocuments(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	scope := listScope(c, a)

	if raw := c.QueryParam("case_id"); raw != "" {
		caseID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid case_id")
		}
		docs, err := h.svc.Documents.ForCase(ctx, scope, uint(caseID))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, docs)
	}

	var docs []models.Document
	if docType := c.QueryParam("type"); docType != "" {
		docs, err = h.svc.Documents.ByType(ctx, scope, docType)
	} else {
		docs, err = h.svc.Documents.List(ctx, scope)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

// CreateDocument records the metadata of an uploaded file
func (h *Handler) CreateDocument(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var in services.DocumentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	doc, err := h.svc.Documents.Add(c.Request().Context(), a, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *Handler) DeleteDocument(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Documents.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
