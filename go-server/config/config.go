package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every externally supplied setting the server needs.
type Config struct {
	ListenAddr string

	PostgresURL      string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	RedisAddr string

	// BaseURL is the public origin short URLs are built from,
	// e.g. "https://lz.example.com".
	BaseURL string

	JWTSecret  string
	CORSOrigin string
}

// LoadConfig reads the environment (plus an optional .env file) and
// validates everything the server cannot run without.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config := &Config{
		ListenAddr:       getEnvWithDefault("LISTEN_ADDR", ":8080"),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresSSLMode:  getEnvWithDefault("POSTGRES_SSLMODE", "prefer"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		BaseURL:          getEnvWithDefault("BASE_URL", "http://localhost:8080"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		CORSOrigin:       getEnvWithDefault("CORS_ORIGIN", "*"),
	}

	// Parse PostgreSQL port
	if portStr := os.Getenv("POSTGRES_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
		}
		config.PostgresPort = port
	} else {
		config.PostgresPort = 5432 // default PostgreSQL port
	}

	if config.PostgresURL == "" {
		// If PostgresURL is not set, validate individual parameters
		if config.PostgresHost == "" || config.PostgresUser == "" || config.PostgresDB == "" {
			return nil, fmt.Errorf("either POSTGRES_URL or POSTGRES_HOST, POSTGRES_USER, and POSTGRES_DB must be set")
		}
		// Build PostgresURL from individual parameters
		config.PostgresURL = buildPostgresURL(config)
	}
	if config.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR not set")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}

	return config, nil
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// buildPostgresURL constructs PostgreSQL connection URL from individual parameters
func buildPostgresURL(config *Config) string {
	password := ""
	if config.PostgresPassword != "" {
		password = ":" + config.PostgresPassword
	}

	return fmt.Sprintf("postgres://%s%s@%s:%d/%s?sslmode=%s",
		config.PostgresUser,
		password,
		config.PostgresHost,
		config.PostgresPort,
		config.PostgresDB,
		config.PostgresSSLMode,
	)
}
