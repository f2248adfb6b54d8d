package db

import (
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open sets up a local sqlite database with WAL mode for concurrency
func Open(dbPath string, environment string) (*gorm.DB, error) {
	// Enable WAL mode for better concurrency support
	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=on"

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(environment))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenRemote connects to a libsql (Turso) database through the same sqlite dialect
func OpenRemote(databaseURL, authToken, environment string) (*gorm.DB, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if authToken != "" {
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "libsql",
		DSN:        u.String(),
	}), gormConfig(environment))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote database: %w", err)
	}
	return db, nil
}

// Connect picks the remote database when a URL is configured, otherwise the local file
func Connect(dbPath, tursoURL, tursoToken, environment string, log *zap.Logger) (*gorm.DB, error) {
	if tursoURL != "" {
		db, err := OpenRemote(tursoURL, tursoToken, environment)
		if err != nil {
			return nil, err
		}
		log.Info("database connection established", zap.String("driver", "libsql"))
		return db, nil
	}

	db, err := Open(dbPath, environment)
	if err != nil {
		return nil, err
	}
	log.Info("database connection established", zap.String("driver", "sqlite"), zap.String("path", dbPath))
	return db, nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}

func gormConfig(environment string) *gorm.Config {
	// Determine log level based on environment
	logLevel := logger.Warn
	if environment == "development" {
		logLevel = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}
}
