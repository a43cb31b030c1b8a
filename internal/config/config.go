package config

import (
	"os"
	"strconv"

	"github.com/docker/go-units"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Config holds settings for AWS S3 or any S3-compatible endpoint.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// StorageConfig selects and configures the blob store backend.
type StorageConfig struct {
	// Driver is one of "local", "minio" or "s3".
	Driver string
	// LocalRoot is the base directory used by the local driver.
	LocalRoot string
	// RootPrefix is prepended to every stored document path when talking to the blob store.
	// Document records never contain it.
	RootPrefix string
}

// UploadConfig holds constraints applied to uploaded documents.
type UploadConfig struct {
	MaxSize int64
}

// HTTPConfig holds Fiber server settings.
type HTTPConfig struct {
	BodyLimit       int64
	ShutdownTimeout int
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level     string
	Format    string
	SentryDSN string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Env      string
	Database DatabaseConfig
	MinIO    MinIOConfig
	S3       S3Config
	Storage  StorageConfig
	Upload   UploadConfig
	HTTP     HTTPConfig
	Log      LogConfig
}

// IsDevelopment reports whether APP_ENV asks for development behavior.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Env:      getEnv("APP_ENV", "production"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		S3: S3Config{
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "local"),
			LocalRoot:  getEnv("STORAGE_LOCAL_ROOT", "storage/app"),
			RootPrefix: getEnv("STORAGE_ROOT_PREFIX", "public"),
		},
		Upload: UploadConfig{
			MaxSize: getEnvBytes("UPLOAD_MAX_SIZE", 10*units.MiB),
		},
		HTTP: HTTPConfig{
			BodyLimit:       getEnvBytes("HTTP_BODY_LIMIT", 32*units.MiB),
			ShutdownTimeout: getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 10),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "json"),
			SentryDSN: getEnv("SENTRY_DSN", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvBytes parses human readable sizes ("10MiB", "512k") using binary multiples.
func getEnvBytes(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		n, err := units.RAMInBytes(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return def
}
