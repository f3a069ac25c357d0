package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server presets. The preset selects logging format, cookie security and
// sensible provider defaults; individual settings can still be overridden
// through their own environment variables.
const (
	PresetDevelopment = "development"
	PresetProduction  = "production"
)

type Config struct {
	Preset   string
	BindHost string
	Port     int
	LogLevel string

	DatabaseUrl string

	// Map preview configuration
	TileServerURL      string
	PreviewCacheMaxAge time.Duration

	// Preview cache storage ("local" or "s3")
	StorageProvider  string
	LocalStoragePath string
	LocalStorageURL  string

	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicURL       string

	// Preference store ("memory" or "redis")
	PrefsStore    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Background maintenance
	MaintenanceEnabled  bool
	MaintenanceInterval time.Duration

	// Rate limiting for the preview endpoint
	PreviewRateLimit  int
	PreviewRateWindow time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Preset:   getEnv("PRESET", PresetDevelopment),
		BindHost: getEnv("BIND_HOST", "0.0.0.0"),
		Port:     getEnvInt("PORT", 3000),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// OSM-compatible tile server for map previews
		TileServerURL:      getEnv("TILE_SERVER_URL", "https://tile.openstreetmap.org"),
		PreviewCacheMaxAge: getEnvDuration("PREVIEW_CACHE_MAX_AGE", 7*24*time.Hour),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:3000/files"),

		// S3-compatible object storage (production only)
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3BucketName:      getEnv("S3_BUCKET_NAME", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),

		// Preference store defaults to in-memory for development
		PrefsStore:    getEnv("PREFS_STORE", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Maintenance defaults
		MaintenanceEnabled:  getEnvBool("MAINTENANCE_ENABLED", true),
		MaintenanceInterval: getEnvDuration("MAINTENANCE_INTERVAL", 15*time.Minute),

		// Preview rate limit defaults
		PreviewRateLimit:  getEnvInt("PREVIEW_RATE_LIMIT", 30),
		PreviewRateWindow: getEnvDuration("PREVIEW_RATE_WINDOW", 1*time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if cfg.Preset != PresetDevelopment && cfg.Preset != PresetProduction {
		return nil, fmt.Errorf("PRESET must be either 'development' or 'production', got: %s", cfg.Preset)
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate storage configuration
	if cfg.StorageProvider == "s3" {
		if cfg.S3AccessKeyID == "" {
			return nil, fmt.Errorf("S3_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 's3'")
		}
		if cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("S3_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 's3'")
		}
		if cfg.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME is required when STORAGE_PROVIDER is 's3'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 's3', got: %s", cfg.StorageProvider)
	}

	// Validate preference store configuration
	if cfg.PrefsStore == "redis" {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when PREFS_STORE is 'redis'")
		}
	} else if cfg.PrefsStore != "memory" {
		return nil, fmt.Errorf("PREFS_STORE must be either 'memory' or 'redis', got: %s", cfg.PrefsStore)
	}

	return cfg, nil
}

// IsSecure reports whether HTTPS-only behavior (Secure cookies, HSTS) should
// be enabled for this preset.
func (c *Config) IsSecure() bool {
	return c.Preset != PresetDevelopment
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindHost, c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
