package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mps_intranet_go/config"
	"mps_intranet_go/db"
	"mps_intranet_go/handlers"
	"mps_intranet_go/logging"
	"mps_intranet_go/middleware"
	"mps_intranet_go/services"
	"mps_intranet_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	gormDB, err := db.Connect(cfg.DBPath, cfg.TursoDatabaseURL, cfg.TursoAuthToken, cfg.Environment, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(gormDB)

	store, err := db.NewStore(ctx, gormDB)
	if err != nil {
		logger.Fatal("failed to prepare record store", zap.Error(err))
	}

	sessions, closeSessions, err := openSessionStore(ctx, cfg, gormDB, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}
	defer closeSessions()

	sessionOpts := services.SessionOptions{Timeout: cfg.SessionTimeout, LogTimeoutLogout: cfg.LogTimeoutLogout}
	activity := services.NewActivityLog(store, logger)
	lawyers := services.NewLawyerService(store, logger)
	svc := handlers.Services{
		Sessions:  services.NewSessionProvider(store, sessions, activity, logger, sessionOpts),
		Lawyers:   lawyers,
		Leads:     services.NewLeadService(store, logger, cfg.MaxLeadsPerDay),
		Deadlines: services.NewDeadlineService(store, logger),
		Cases:     services.NewCaseService(store, logger),
		Documents: services.NewDocumentService(store, logger),
		Stats:     services.NewStatsService(store, logger, cfg.DueSoonDays),
		Search:    services.NewSearchService(store, logger),
		Activity:  activity,
		Backups:   services.NewBackupService(store, activity, services.NewBackupStorage(ctx, cfg, logger), logger),
	}

	if _, err := services.SeedLawyers(ctx, lawyers, activity, cfg.SeedFile, logger); err != nil {
		logger.Fatal("failed to seed lawyers", zap.Error(err))
	}

	scheduler, err := jobs.NewScheduler(logger, svc.Sessions, svc.Backups, cfg.BackupSchedule, cfg.BackupRetention)
	if err != nil {
		logger.Fatal("failed to schedule jobs", zap.Error(err))
	}
	scheduler.Start()

	loginLimiter := middleware.NewLoginRateLimiter()
	defer loginLimiter.Close()
	apiLimiter := middleware.NewAPIRateLimiter()
	defer apiLimiter.Close()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	// Middleware
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.WithConfig(cfg))
	e.Use(apiLimiter.Middleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	handlers.New(svc, logger, sessionOpts).Register(e, loginLimiter)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

// openSessionStore picks the persisted session backend from config
func openSessionStore(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, logger *zap.Logger) (services.SessionStore, func(), error) {
	if cfg.SessionStore == config.SessionStoreRedis {
		// fingerprints outlive the timeout by a minute so the sweeper still sees them expire
		store, err := services.NewRedisSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTimeout+time.Minute)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session store ready", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
		return store, func() { _ = store.Close() }, nil
	}

	store, err := services.NewDBSessionStore(ctx, gormDB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("session store ready", zap.String("backend", "db"))
	return store, func() {}, nil
}
