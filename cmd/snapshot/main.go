package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"mps_intranet_go/config"
	"mps_intranet_go/db"
	"mps_intranet_go/logging"
	"mps_intranet_go/services"

	"go.uber.org/zap"
)

const usage = `usage: snapshot <command> <file>

commands:
  export <file>   write every collection to a JSON snapshot
  import <file>   replace every collection with a JSON snapshot
  xlsx <file>     write every collection to a spreadsheet`

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	command, path := os.Args[1], os.Args[2]

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

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

	activity := services.NewActivityLog(store, logger)
	backups := services.NewBackupService(store, activity, services.NewLocalStorage(cfg.BackupDir), logger)
	system := services.SystemAdmin()

	switch command {
	case "export":
		data, err := backups.Export(ctx, system)
		if err != nil {
			logger.Fatal("export failed", zap.Error(err))
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			logger.Fatal("failed to write snapshot", zap.String("path", path), zap.Error(err))
		}
		logger.Info("snapshot exported", zap.String("path", path), zap.Int("bytes", len(data)))

	case "import":
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("failed to read snapshot", zap.String("path", path), zap.Error(err))
		}
		if err := backups.Restore(ctx, services.SystemActor, data); err != nil {
			logger.Fatal("import failed", zap.Error(err))
		}
		logger.Info("snapshot imported", zap.String("path", path))

	case "xlsx":
		buf, err := backups.Workbook(ctx, system)
		if err != nil {
			logger.Fatal("workbook export failed", zap.Error(err))
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			logger.Fatal("failed to write workbook", zap.String("path", path), zap.Error(err))
		}
		logger.Info("workbook exported", zap.String("path", path))

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
