package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mps_intranet_go/middleware"
	"mps_intranet_go/models"
	"mps_intranet_go/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Services bundles everything the JSON API calls into
type Services struct {
	Sessions  *services.SessionProvider
	Lawyers   *services.LawyerService
	Leads     *services.LeadService
	Deadlines *services.DeadlineService
	Cases     *services.CaseService
	Documents *services.DocumentService
	Stats     *services.StatsService
	Search    *services.SearchService
	Activity  *services.ActivityLog
	Backups   *services.BackupService
}

// Handler serves the intranet JSON API
type Handler struct {
	svc     Services
	logger  *zap.Logger
	timeout time.Duration // cookie lifetime
}

// New creates a handler over the wired services
func New(svc Services, logger *zap.Logger, opts services.SessionOptions) *Handler {
	return &Handler{svc: svc, logger: logger, timeout: opts.Timeout}
}

// Register mounts every route under /api. loginLimiter guards the login endpoint.
func (h *Handler) Register(e *echo.Echo, loginLimiter *middleware.RateLimiter) {
	api := e.Group("/api")

	api.POST("/login", h.Login, loginLimiter.Middleware())
	api.POST("/logout", h.Logout)

	auth := api.Group("", middleware.RequireAuth(h.svc.Sessions))
	auth.GET("/me", h.Me)
	auth.POST("/me/password", h.ChangePassword)
	auth.GET("/dashboard", h.Dashboard)
	auth.GET("/dashboard/general", h.GeneralDashboard, middleware.RequireAdmin())
	auth.GET("/search", h.Search)
	auth.GET("/activity", h.Activity)

	leads := auth.Group("/leads", middleware.RequirePermission(models.PermissionLeads))
	leads.GET("", h.ListLeads)
	leads.POST("", h.CreateLead)
	leads.GET("/:id", h.GetLead)
	leads.PUT("/:id/status", h.UpdateLeadStatus)
	leads.DELETE("/:id", h.DeleteLead)

	deadlines := auth.Group("/deadlines", middleware.RequirePermission(models.PermissionDeadlines))
	deadlines.GET("", h.ListDeadlines)
	deadlines.POST("", h.CreateDeadline)
	deadlines.GET("/due-soon", h.DueSoonDeadlines)
	deadlines.GET("/overdue", h.OverdueDeadlines)
	deadlines.PUT("/:id", h.UpdateDeadline)
	deadlines.POST("/:id/complete", h.CompleteDeadline)
	deadlines.DELETE("/:id", h.DeleteDeadline)

	cases := auth.Group("/cases", middleware.RequirePermission(models.PermissionCases))
	cases.GET("", h.ListCases)
	cases.POST("", h.CreateCase)
	cases.GET("/:id", h.GetCase)
	cases.PUT("/:id", h.UpdateCase)
	cases.PUT("/:id/status", h.UpdateCaseStatus)
	cases.DELETE("/:id", h.DeleteCase)

	documents := auth.Group("/documents", middleware.RequirePermission(models.PermissionDocuments))
	documents.GET("", h.ListDocuments)
	documents.POST("", h.CreateDocument)
	documents.DELETE("/:id", h.DeleteDocument)

	auth.GET("/lawyers", h.ListLawyers, middleware.RequireAdmin())
	auth.POST("/lawyers", h.CreateLawyer, middleware.RequireAdmin())
	auth.PUT("/lawyers/:username", h.UpdateLawyer)
	auth.PUT("/lawyers/:username/status", h.SetLawyerStatus, middleware.RequireAdmin())

	admin := auth.Group("/admin", middleware.RequireAdmin())
	admin.GET("/export", h.Export)
	admin.GET("/export.xlsx", h.ExportWorkbook)
	admin.POST("/import", h.Import)
	admin.POST("/backup", h.RunBackup)
	admin.GET("/backups", h.ListBackups)
	admin.POST("/backups/restore", h.RestoreBackup)
}

// actor resolves the session user for a service call
func actor(c echo.Context) (services.Actor, error) {
	a, err := middleware.GetActor(c)
	if err != nil {
		return services.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return a, nil
}

// listScope is the caller's own records, or for admins any lawyer picked with ?lawyer=
func listScope(c echo.Context, a services.Actor) services.Scope {
	if lawyer := c.QueryParam("lawyer"); lawyer != "" && a.IsAdmin() {
		return services.LawyerScope(lawyer)
	}
	return a.Scope()
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// statusRequest is the body of every status change endpoint
type statusRequest struct {
	Status string `json:"status"`
}
