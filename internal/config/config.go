package config

import (
	"errors"  // For validation errors
	"fmt"     // For error formatting
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported blob storage backends
const (
	BackendLocal = "local"
	BackendMinio = "minio"
	BackendS3    = "s3"
	BackendGCS   = "gcs"
)

// Config holds the application configuration
type Config struct {
	AppPort        string        // Application port
	IsProd         bool          // Is production environment
	LogLevel       string        // Logrus level name
	TrustedProxies []string      // Proxies gin trusts for client IPs
	DBDriver       string        // mysql, postgres or sqlite
	DBUser         string        // Database user
	DBPassword     string        // Database password
	DBHost         string        // Database host
	DBPort         string        // Database port
	DBName         string        // Database name
	DBPath         string        // SQLite database file
	JWTSecret      string        // JWT secret key
	AccessTTL      time.Duration // Access token lifetime
	RefreshTTL     time.Duration // Refresh token lifetime
	RedisAddr      string        // Redis server address, empty disables Redis
	RedisPass      string        // Redis password
	RedisDB        int           // Redis database number
	StatsCacheTTL  time.Duration // How long /stats results stay cached
	StatsAdminOnly bool          // Restrict /stats to admins
	RateLimitMax   int           // Requests allowed per window on open auth routes
	RateLimitWin   time.Duration // Rate limit window
	MaxUploadSize  int64         // Multipart upload limit in bytes
	Storage        StorageConfig // Blob storage settings
}

// StorageConfig holds the blob storage settings
type StorageConfig struct {
	Backend           string // local, minio, s3 or gcs
	MediaRoot         string // Root directory for the local backend
	Bucket            string // Bucket for minio, s3 and gcs
	MinioEndpoint     string // MinIO host:port
	MinioAccessKey    string // MinIO access key
	MinioSecretKey    string // MinIO secret key
	MinioUseSSL       bool   // Use TLS towards MinIO
	S3Region          string // AWS region
	S3Endpoint        string // Optional S3 compatible endpoint
	S3AccessKeyID     string // Optional static access key
	S3SecretAccessKey string // Optional static secret key
	GCSCredentials    string // Optional service account file
	GCSProjectID      string // Project used when creating the bucket
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:        getEnv("APP_PORT", "8000"),
		IsProd:         os.Getenv("IS_PROD") == "true",
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "127.0.0.1")),
		DBDriver:       getEnv("DB_DRIVER", DriverMySQL),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         os.Getenv("DB_PORT"),
		DBName:         os.Getenv("DB_NAME"),
		DBPath:         getEnv("DB_PATH", "file_portal.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTTL:      getDuration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTTL:     getDuration("REFRESH_TOKEN_TTL", 24*time.Hour),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPass:      os.Getenv("REDIS_PASS"),
		RedisDB:        getInt("REDIS_DB", 0),
		StatsCacheTTL:  getDuration("STATS_CACHE_TTL", time.Minute),
		StatsAdminOnly: os.Getenv("STATS_ADMIN_ONLY") == "true",
		RateLimitMax:   getInt("RATE_LIMIT_MAX", 20),
		RateLimitWin:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		MaxUploadSize:  int64(getInt("MAX_UPLOAD_SIZE", 32<<20)),
		Storage: StorageConfig{
			Backend:           getEnv("STORAGE_BACKEND", BackendLocal),
			MediaRoot:         getEnv("MEDIA_ROOT", "./media"),
			Bucket:            os.Getenv("STORAGE_BUCKET"),
			MinioEndpoint:     os.Getenv("MINIO_ENDPOINT"),
			MinioAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
			MinioSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
			MinioUseSSL:       os.Getenv("MINIO_USE_SSL") == "true",
			S3Region:          getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:        os.Getenv("S3_ENDPOINT"),
			S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			GCSCredentials:    os.Getenv("GCS_CREDENTIALS_FILE"),
			GCSProjectID:      os.Getenv("GCS_PROJECT_ID"),
		},
	}
}

// Validate checks that the configuration can start a server
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres:
		if c.DBName == "" {
			return fmt.Errorf("DB_NAME is required for %s", c.DBDriver)
		}
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return c.Storage.Validate()
}

// Validate checks the settings required by the selected backend
func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendLocal:
		if s.MediaRoot == "" {
			return errors.New("MEDIA_ROOT is required for local storage")
		}
	case BackendMinio:
		if s.MinioEndpoint == "" || s.MinioAccessKey == "" || s.MinioSecretKey == "" {
			return errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
		}
	case BackendS3, BackendGCS:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", s.Backend)
	}
	if s.Backend != BackendLocal && s.Bucket == "" {
		return errors.New("STORAGE_BUCKET is required")
	}
	return nil
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, getOr(c.DBPort, "5432"), c.DBUser, c.DBPassword, c.DBName)
	case DriverSQLite:
		return c.DBPath
	default:
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + getOr(c.DBPort, "3306") + ")/" + c.DBName + "?parseTime=true"
	}
}

func getEnv(key, fallback string) string {
	return getOr(os.Getenv(key), fallback)
}

func getOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback // Unset or malformed
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback // Unset or malformed
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
