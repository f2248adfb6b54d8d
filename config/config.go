package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultSessionTimeout is how long a login stays valid, counted from login time
	DefaultSessionTimeout = 8 * time.Hour

	// SessionStoreDB keeps session fingerprints in the record database
	SessionStoreDB = "db"
	// SessionStoreRedis keeps session fingerprints in redis
	SessionStoreRedis = "redis"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	LogLevel    string
	// Remote libsql database (Turso); takes precedence over DBPath when set
	TursoDatabaseURL string
	TursoAuthToken   string
	// Sessions
	SessionTimeout   time.Duration
	SessionStore     string // db or redis
	LogTimeoutLogout bool   // write a logout activity entry when a session expires
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	// Intake and dashboard
	DueSoonDays    int // alert horizon for the dashboard
	MaxLeadsPerDay int // 0 disables the quota
	SeedFile       string
	// Backups
	BackupDir       string
	BackupSchedule  string
	BackupRetention int // scheduled backups kept, 0 keeps all
	// Cloudflare R2 Storage for backups
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "db/intranet.db"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		TursoDatabaseURL:  getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:    getEnv("TURSO_AUTH_TOKEN", ""),
		SessionTimeout:    getEnvDuration("SESSION_TIMEOUT", DefaultSessionTimeout),
		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", SessionStoreDB)),
		LogTimeoutLogout:  getEnvBool("LOG_TIMEOUT_LOGOUT", true),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		DueSoonDays:       getEnvInt("DUE_SOON_DAYS", 3),
		MaxLeadsPerDay:    getEnvInt("MAX_LEADS_PER_DAY", 10),
		SeedFile:          getEnv("SEED_FILE", ""),
		BackupDir:         getEnv("BACKUP_DIR", "backups"),
		BackupSchedule:    getEnv("BACKUP_SCHEDULE", "0 0 * * *"),
		BackupRetention:   getEnvInt("BACKUP_RETENTION", 14),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
	}
}

// Validate checks values that would otherwise fail much later at runtime
func (c *Config) Validate() error {
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got %s", c.SessionTimeout)
	}
	if c.SessionStore != SessionStoreDB && c.SessionStore != SessionStoreRedis {
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreDB, SessionStoreRedis, c.SessionStore)
	}
	if c.DueSoonDays < 0 {
		return fmt.Errorf("DUE_SOON_DAYS cannot be negative")
	}
	if c.MaxLeadsPerDay < 0 {
		return fmt.Errorf("MAX_LEADS_PER_DAY cannot be negative")
	}
	if c.BackupRetention < 0 {
		return fmt.Errorf("BACKUP_RETENTION cannot be negative")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// R2Configured reports whether every R2 credential is present
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[WARNING] %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[WARNING] %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
