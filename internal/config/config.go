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
	StorageDriverPostgres = "postgres"
	StorageDriverBolt     = "bolt"
)

type Config struct {
	Port                     string
	StorageDriver            string
	DatabaseURL              string
	BoltPath                 string
	JWTSecret                string
	GoogleAudience           string
	AllowOrigins             []string
	LogstashTCPAddr          string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOBucketProfile       string
	MinIOPublicURL           string
	FrontendBaseURL          string
	SMTPHost                 string
	SMTPPort                 string
	SMTPUsername             string
	SMTPPassword             string
	SMTPFrom                 string
	PasswordResetTTL         time.Duration
	PasswordResetMaxRequests int
	PasswordResetWindow      time.Duration
	ResetIPMaxRequests       int
	ResetIPWindow            time.Duration
	RateLimitSweepInterval   time.Duration
	ProfilePhotoMaxDimension int
	ShutdownTimeout          time.Duration
}

// PhotoStorageEnabled reports whether federated profile photos should be
// copied into object storage.
func (c Config) PhotoStorageEnabled() bool {
	return c.MinIOEndpoint != ""
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	driver := strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverPostgres))
	var databaseURL string
	switch driver {
	case StorageDriverPostgres:
		databaseURL = must("DATABASE_URL")
	case StorageDriverBolt:
		databaseURL = getenv("DATABASE_URL", "")
	default:
		panic(fmt.Sprintf("unsupported STORAGE_DRIVER %q", driver))
	}

	cfg := Config{
		Port:                     getenv("PORT", "8080"),
		StorageDriver:            driver,
		DatabaseURL:              databaseURL,
		BoltPath:                 getenv("BOLT_PATH", "authcore.db"),
		JWTSecret:                must("JWT_SECRET"),
		GoogleAudience:           getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:             splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr:          getenv("LOGSTASH_TCP_ADDR", ""),
		MinIOEndpoint:            getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketProfile:       getenv("MINIO_BUCKET_PROFILE", "authcore-profiles"),
		MinIOPublicURL:           getenv("MINIO_PUBLIC_URL", ""),
		FrontendBaseURL:          getenv("FRONTEND_BASE_URL", ""),
		SMTPHost:                 getenv("SMTP_HOST", ""),
		SMTPPort:                 getenv("SMTP_PORT", ""),
		SMTPUsername:             getenv("SMTP_USERNAME", ""),
		SMTPPassword:             getenv("SMTP_PASSWORD", ""),
		SMTPFrom:                 getenv("SMTP_FROM", ""),
		PasswordResetTTL:         durationEnv("PASSWORD_RESET_TTL", time.Hour),
		PasswordResetMaxRequests: intEnv("PASSWORD_RESET_MAX_REQUESTS", 5),
		PasswordResetWindow:      durationEnv("PASSWORD_RESET_WINDOW", time.Minute),
		ResetIPMaxRequests:       intEnv("PASSWORD_RESET_IP_MAX_REQUESTS", 20),
		ResetIPWindow:            durationEnv("PASSWORD_RESET_IP_WINDOW", time.Minute),
		RateLimitSweepInterval:   durationEnv("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		ProfilePhotoMaxDimension: intEnv("PROFILE_PHOTO_MAX_DIMENSION", 512),
		ShutdownTimeout:          durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.MinIOEndpoint != "" {
		cfg.MinIOAccessKey = must("MINIO_ACCESS_KEY")
		cfg.MinIOSecretKey = must("MINIO_SECRET_KEY")
	}
	return cfg
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

func durationEnv(k string, d time.Duration) time.Duration {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("config: invalid %s %q, using %s", k, raw, d)
		return d
	}
	return v
}

func intEnv(k string, d int) int {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("config: invalid %s %q, using %d", k, raw, d)
		return d
	}
	return v
}
