package config

import (
	"os"
	"strconv"
	"strings"

	"mindspace-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string
	CatalogPath     string
	QueueURL        string
	AWSRegion       string
	// Timezone is the IANA zone in which booking dates are checked against today.
	Timezone  string
	RateLimit RateLimit
	Worker    Worker
}

// RateLimit configures the token buckets applied to write endpoints.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Worker configures the follow-up queue consumer.
type Worker struct {
	Concurrency            int
	VisibilityTimeoutSecs  int
	ShutdownTimeoutSeconds int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url.missing", map[string]any{"env": env})
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		Env:             env,
		CatalogPath:     getEnv("QUIZ_CATALOG_PATH", ""),
		QueueURL:        getEnv("SQS_QUEUE_URL", ""),
		AWSRegion:       getEnv("AWS_REGION", "eu-south-1"),
		Timezone:        getEnv("BOOKING_TIMEZONE", "Europe/Rome"),
		RateLimit: RateLimit{
			PerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 1),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Worker: Worker{
			Concurrency:            getEnvInt("WORKER_CONCURRENCY", 4),
			VisibilityTimeoutSecs:  getEnvInt("SQS_VISIBILITY_TIMEOUT_SECONDS", 120),
			ShutdownTimeoutSeconds: getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30),
		},
	}
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err})
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "error": err})
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
