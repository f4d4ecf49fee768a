package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaults matching the deployed configuration (millisecond env values)
const (
	defaultSessionTimeoutMs  = 1800000  // 30 minutes
	defaultMaxSessionAgeMs   = 14400000 // 4 hours
	defaultCleanupIntervalMs = 300000   // 5 minutes
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	// production environments may not ship a .env file
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	sessionTimeout, err := durationFromEnvMs("SESSION_TIMEOUT", defaultSessionTimeoutMs)
	if err != nil {
		return nil, err
	}

	maxSessionAge, err := durationFromEnvMs("MAX_SESSION_DURATION", defaultMaxSessionAgeMs)
	if err != nil {
		return nil, err
	}

	cleanupInterval, err := durationFromEnvMs("CLEANUP_INTERVAL", defaultCleanupIntervalMs)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            port,
		Environment:     environment,
		FrontendURL:     frontendURL,
		AllowedOrigins:  parseAllowedOrigins(),
		SessionTimeout:  sessionTimeout,
		MaxSessionAge:   maxSessionAge,
		CleanupInterval: cleanupInterval,
	}, nil
}

// reads a millisecond-valued env variable, falling back to a default
func durationFromEnvMs(name string, defaultMs int) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return time.Duration(defaultMs) * time.Millisecond, nil
	}

	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer of milliseconds, got %q", name, raw)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

// parses the comma-separated ALLOWED_ORIGINS list
func parseAllowedOrigins() []string {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		return []string{}
	}

	origins := strings.Split(raw, ",")

	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return origins
}
