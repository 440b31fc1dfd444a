package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || value == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s=%q bukan angka, pakai default %d", key, v, def)
		return def
	}
	return n
}

func GetEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s=%q bukan boolean, pakai default %v", key, v, def)
		return def
	}
	return b
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] %s=%q bukan durasi, pakai default %s", key, v, def)
		return def
	}
	return d
}

// =======================
// APP CONFIG
// =======================
type DBConfig struct {
	URL      string
	Host     string `validate:"required_without=URL"`
	Port     string
	User     string
	Password string
	Name     string `validate:"required_without=URL"`
	SSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	AppName  string
	// statement_timeout di sisi server
	StatementTimeout time.Duration
}

// DSN prefers DATABASE_URL and otherwise assembles one from the parts.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=%s&options=-c%%20statement_timeout=%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode, d.AppName, d.StatementTimeout.Milliseconds(),
	)
}

type StorageConfig struct {
	Driver       string `validate:"oneof=disk oss s3"`
	Dir          string `validate:"required_if=Driver disk"`
	Prefix       string
	PublicPrefix string `validate:"required,startswith=/"`
	VerifyImage  bool

	OSSEndpoint  string `validate:"required_if=Driver oss"`
	OSSAccessKey string `validate:"required_if=Driver oss"`
	OSSSecretKey string `validate:"required_if=Driver oss"`
	OSSToken     string
	OSSBucket    string `validate:"required_if=Driver oss"`

	S3Region       string
	S3Endpoint     string
	S3UsePathStyle bool
	S3Bucket       string `validate:"required_if=Driver s3"`
}

type CleanupConfig struct {
	Workers     int           `validate:"min=1"`
	Buffer      int           `validate:"min=1"`
	MaxAttempts int           `validate:"min=1"`
	Backoff     time.Duration `validate:"min=0"`
	Timeout     time.Duration `validate:"gt=0"`
}

type ReaperConfig struct {
	Enabled   bool
	Schedule  string        `validate:"required_if=Enabled true"`
	Retention time.Duration `validate:"gt=0"`
	DryRun    bool
}

type AppConfig struct {
	Port            string `validate:"required,numeric"`
	BodyLimit       int    `validate:"min=1"`
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration `validate:"gt=0"`
	CORSOrigins     string
	RateLimitMax    int `validate:"min=0"`

	// cap untuk GET /events tanpa id dan tanpa type=latest
	DefaultListCap int `validate:"min=1,max=1000"`

	DB      DBConfig
	Storage StorageConfig
	Cleanup CleanupConfig
	Reaper  ReaperConfig
}

// Load reads AppConfig from the environment and validates it.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:            GetEnv("PORT", "8080"),
		BodyLimit:       GetEnvInt("BODY_LIMIT_BYTES", 6*1024*1024),
		RequestTimeout:  GetEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout: GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:     GetEnv("CORS_ALLOW_ORIGINS", "*"),
		RateLimitMax:    GetEnvInt("RATE_LIMIT_MAX", 0),
		DefaultListCap:  GetEnvInt("EVENTS_DEFAULT_LIST_CAP", 50),
		DB: DBConfig{
			URL:              GetEnv("DATABASE_URL"),
			Host:             GetEnv("DB_HOST"),
			Port:             GetEnv("DB_PORT", "5432"),
			User:             GetEnv("DB_USER"),
			Password:         GetEnv("DB_PASSWORD"),
			Name:             GetEnv("DB_NAME"),
			SSLMode:          GetEnv("DB_SSLMODE", "require"),
			AppName:          GetEnv("DB_APP_NAME", "events_backend"),
			StatementTimeout: GetEnvDuration("DB_STATEMENT_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(GetEnv("STORAGE_DRIVER", "disk")),
			Dir:            GetEnv("UPLOAD_DIR", "uploads"),
			Prefix:         GetEnv("STORAGE_PREFIX", "events"),
			PublicPrefix:   GetEnv("UPLOAD_PUBLIC_PREFIX", "/api/v3/app/uploads"),
			VerifyImage:    GetEnvBool("UPLOAD_VERIFY_IMAGE", true),
			OSSEndpoint:    GetEnv("ALI_OSS_ENDPOINT"),
			OSSAccessKey:   GetEnv("ALI_OSS_ACCESS_KEY"),
			OSSSecretKey:   GetEnv("ALI_OSS_SECRET_KEY"),
			OSSToken:       GetEnv("ALI_OSS_SECURITY_TOKEN"),
			OSSBucket:      GetEnv("ALI_OSS_BUCKET"),
			S3Region:       GetEnv("S3_REGION", "us-east-1"),
			S3Endpoint:     GetEnv("S3_ENDPOINT"),
			S3UsePathStyle: GetEnvBool("S3_USE_PATH_STYLE", false),
			S3Bucket:       GetEnv("S3_BUCKET"),
		},
		Cleanup: CleanupConfig{
			Workers:     GetEnvInt("CLEANUP_WORKERS", 2),
			Buffer:      GetEnvInt("CLEANUP_BUFFER", 256),
			MaxAttempts: GetEnvInt("CLEANUP_MAX_ATTEMPTS", 1),
			Backoff:     GetEnvDuration("CLEANUP_BACKOFF", 500*time.Millisecond),
			Timeout:     GetEnvDuration("CLEANUP_TIMEOUT", 10*time.Second),
		},
		Reaper: ReaperConfig{
			Enabled:   GetEnvBool("REAPER_ENABLED", true),
			Schedule:  GetEnv("REAPER_CRON", "@every 1h"),
			Retention: GetEnvDuration("REAPER_RETENTION", 24*time.Hour),
			DryRun:    GetEnvBool("REAPER_DRY_RUN", false),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config tidak valid: %w", err)
	}
	return cfg, nil
}
