package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// maxImportSize caps the body of an import request
const maxImportSize = 32 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type restoreRequest struct {
	Key string `json:"key"`
}

// Export downloads the full snapshot document
func (h *Handler) Export(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	data, err := h.svc.Backups.Export(c.Request().Context(), a)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, attachment("json"))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

// ExportWorkbook downloads every collection as a spreadsheet
func (h *Handler) ExportWorkbook(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	buf, err := h.svc.Backups.Workbook(c.Request().Context(), a)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, attachment("xlsx"))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Import replaces every collection with the uploaded snapshot document
func (h *Handler) Import(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportSize+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read upload")
	}
	if len(data) > maxImportSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Import file too large")
	}
	if err := h.svc.Backups.Import(c.Request().Context(), a, data); err != nil {
		return err
	}
	h.logger.Info("snapshot imported", zap.String("by", a.Username), zap.Int("bytes", len(data)))
	return c.NoContent(http.StatusNoContent)
}

// RunBackup writes a backup to the configured storage now
func (h *Handler) RunBackup(c echo.Context) error {
	key, err := h.svc.Backups.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"key": key})
}

func (h *Handler) ListBackups(c echo.Context) error {
	keys, err := h.svc.Backups.Backups(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, keys)
}

// RestoreBackup restores a stored backup by key
func (h *Handler) RestoreBackup(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req restoreRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	if err := h.svc.Backups.RestoreFrom(c.Request().Context(), a, req.Key); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="mps-intranet-%s.%s"`, time.Now().Format("2006-01-02"), ext)
}
