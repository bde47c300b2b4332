package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ImageStoreLocal = "local"
	ImageStoreS3    = "s3"

	// DefaultTokenTTLMinutes is thirty days.
	DefaultTokenTTLMinutes = 43200
)

// Config is loaded once at startup and treated as read-only afterwards.
type Config struct {
	Environment string
	ServerHost  string
	ServerPort  string

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	DBAutoMigrate  bool

	JWTSecret    string
	JWTAlgorithm string
	TokenTTL     time.Duration
	BcryptCost   int

	ImageStore     string
	UploadDir      string
	MaxUploadBytes int64
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	RedisURL               string
	RateLimitEnabled       bool
	RateLimitAttempts      int
	RateLimitWindow        time.Duration
	RateLimitBlockDuration time.Duration
	LoginFailureLimit      int
	LoginFailureWindow     time.Duration

	LogLevel  string
	LogFormat string

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

var (
	ErrMissingDatabaseURL    = errors.New("DATABASE_URL is required for the postgres driver")
	ErrInvalidDatabaseDriver = errors.New("DB_DRIVER must be postgres or sqlite")
	ErrMissingJWTSecret      = errors.New("JWT_SECRET is required")
	ErrInvalidJWTAlgorithm   = errors.New("JWT_ALG must be HS256, HS384 or HS512")
	ErrInvalidTokenTTL       = errors.New("invalid token TTL format")
	ErrInvalidDuration       = errors.New("invalid duration, expected whole seconds")
	ErrInvalidImageStore     = errors.New("IMAGE_STORE must be local or s3")
	ErrMissingS3Bucket       = errors.New("S3_BUCKET is required when IMAGE_STORE=s3")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnvOrDefault("ENV", "development"),
		ServerHost:  getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "15000"),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverSQLite)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getEnvOrDefault("SQLITE_PATH", "app.db"),
		DBAutoMigrate:  getEnvOrDefaultBool("DB_AUTO_MIGRATE", true),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTAlgorithm: strings.ToUpper(getEnvOrDefault("JWT_ALG", "HS256")),
		BcryptCost:   getEnvOrDefaultInt("BCRYPT_COST", 10),

		ImageStore:     strings.ToLower(getEnvOrDefault("IMAGE_STORE", ImageStoreLocal)),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getEnvOrDefaultInt("MAX_UPLOAD_BYTES", 10<<20)),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3UsePathStyle: getEnvOrDefaultBool("S3_USE_PATH_STYLE", true),

		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RateLimitEnabled:  getEnvOrDefaultBool("RATE_LIMIT_ENABLED", false),
		RateLimitAttempts: getEnvOrDefaultInt("RATE_LIMIT_ATTEMPTS", 10),
		LoginFailureLimit: getEnvOrDefaultInt("LOGIN_FAILURE_LIMIT", 5),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", false),
		CORSAllowedOrigins:   parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, ErrMissingDatabaseURL
		}
	default:
		return nil, ErrInvalidDatabaseDriver
	}

	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, ErrInvalidJWTAlgorithm
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	ttlMinutes, err := strconv.Atoi(getEnvOrDefault("JWT_TTL_MINUTES", strconv.Itoa(DefaultTokenTTLMinutes)))
	if err != nil || ttlMinutes <= 0 {
		return nil, ErrInvalidTokenTTL
	}
	cfg.TokenTTL = time.Duration(ttlMinutes) * time.Minute

	switch cfg.ImageStore {
	case ImageStoreLocal:
	case ImageStoreS3:
		if cfg.S3Bucket == "" {
			return nil, ErrMissingS3Bucket
		}
	default:
		return nil, ErrInvalidImageStore
	}

	window, err := parseSeconds(getEnvOrDefault("RATE_LIMIT_WINDOW", "900"))
	if err != nil {
		return nil, ErrInvalidDuration
	}
	cfg.RateLimitWindow = window

	blockDuration, err := parseSeconds(getEnvOrDefault("RATE_LIMIT_BLOCK_DURATION", "1800"))
	if err != nil {
		return nil, ErrInvalidDuration
	}
	cfg.RateLimitBlockDuration = blockDuration

	failureWindow, err := parseSeconds(getEnvOrDefault("LOGIN_FAILURE_WINDOW", "900"))
	if err != nil {
		return nil, ErrInvalidDuration
	}
	cfg.LoginFailureWindow = failureWindow

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
