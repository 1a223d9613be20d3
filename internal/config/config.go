package config

import (
	"fmt"
	"os"
)

// Config holds all runtime configuration for the Ambira backend.
// Values are read once at startup from the environment (.env in development).
type Config struct {
	Environment string
	Port        string

	// Postgres
	DatabaseURL string

	// Redis (optional - feed/profile caching is skipped when unset)
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Auth
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string

	// AWS (S3 and SES are optional - uploads/email are disabled when unset)
	AWSRegion   string
	S3Bucket    string
	CDNBaseURL  string
	SESFrom     string
	SESFromName string

	// Web app base URL, used in password reset links
	AppBaseURL string

	// This API's own base URL, used in OAuth callback URLs
	APIBaseURL string

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment and validates required values.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:        getEnvOrDefault("ENVIRONMENT", "development"),
		Port:               getEnvOrDefault("PORT", "8686"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisHost:          os.Getenv("REDIS_HOST"),
		RedisPort:          getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		AWSRegion:          getEnvOrDefault("AWS_REGION", "us-east-1"),
		S3Bucket:           os.Getenv("AWS_BUCKET"),
		CDNBaseURL:         os.Getenv("CDN_BASE_URL"),
		SESFrom:            os.Getenv("SES_FROM_EMAIL"),
		SESFromName:        getEnvOrDefault("SES_FROM_NAME", "Ambira"),
		AppBaseURL:         getEnvOrDefault("APP_BASE_URL", "http://localhost:3000"),
		APIBaseURL:         getEnvOrDefault("API_BASE_URL", "http://localhost:8686"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:            getEnvOrDefault("LOG_FILE", "server.log"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
