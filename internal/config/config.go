package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application. The server
// and the consoles share one loader; each reads the fields it needs.
type Config struct {
	// Server
	Port           string
	AllowedOrigins []string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	Environment    string

	// Console clients
	ServerURL   string
	AccessToken string

	// Stream reconnection policy
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	MaxAttempts  int
	AuthDebounce time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		Environment:    getEnv("ENVIRONMENT", "production"),

		ServerURL:   getEnv("GATEPASS_SERVER_URL", "http://localhost:8080"),
		AccessToken: getEnv("GATEPASS_TOKEN", ""),

		BackoffBase:  getDurationEnv("STREAM_BACKOFF_BASE_MS", 1000) * time.Millisecond,
		BackoffMax:   getDurationEnv("STREAM_BACKOFF_MAX_MS", 30000) * time.Millisecond,
		MaxAttempts:  getIntEnv("STREAM_MAX_ATTEMPTS", 5),
		AuthDebounce: getDurationEnv("STREAM_AUTH_DEBOUNCE_MS", 250) * time.Millisecond,
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv reads an integer environment variable as a unit count
// for duration fields
func getDurationEnv(key string, fallback int) time.Duration {
	return time.Duration(getIntEnv(key, fallback))
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
