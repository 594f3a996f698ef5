package config

import (
	"fmt"
	"os"
	"strings"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Move targets: which version a move edits
const (
	MoveTargetPublished = "published"
	MoveTargetDraft     = "draft"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Storage
	StorageDriver string
	DatabaseURL   string
	TablePrefix   string
	BadgerPath    string

	// Auth
	JWKSURL      string
	AuthDisabled bool

	// MoveTarget selects the version moves operate on (published or draft)
	MoveTarget string

	// Object storage for archived backups. Archiving is off when S3Bucket is empty.
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// Logging
	LogDir string

	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   env,
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		StorageDriver: getEnv("STORAGE_DRIVER", DriverPostgres),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		TablePrefix:   getTablePrefix(env),
		BadgerPath:    getEnv("BADGER_PATH", "./data/badger"),
		JWKSURL:       getEnv("JWKS_URL", ""),
		AuthDisabled:  getEnv("AUTH_DISABLED", "false") == "true",
		MoveTarget:    getEnv("MOVE_TARGET", MoveTargetPublished),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		LogDir:        getEnv("LOG_DIR", ""),
		// Debug defaults to on outside production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	var problems []string

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres driver")
		}
	case DriverBadger:
		if c.BadgerPath == "" {
			problems = append(problems, "BADGER_PATH is required for the badger driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.MoveTarget != MoveTargetPublished && c.MoveTarget != MoveTargetDraft {
		problems = append(problems, fmt.Sprintf("MOVE_TARGET must be %q or %q", MoveTargetPublished, MoveTargetDraft))
	}

	if !c.AuthDisabled && c.JWKSURL == "" {
		problems = append(problems, "JWKS_URL is required unless AUTH_DISABLED=true")
	}
	if c.AuthDisabled && c.Environment == "prod" {
		problems = append(problems, "AUTH_DISABLED is not allowed in prod")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ArchiveEnabled reports whether backups can be archived to object storage
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
