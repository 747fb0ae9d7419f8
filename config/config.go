package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage backends the server can persist the roster document to.
const (
	BackendR2       = "r2"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// The document lives under this key unless overridden; the name predates
// this rewrite and stored documents still use it.
const defaultDocumentKey = "newells-hub-data"

// Config holds all application configuration parameters.
type Config struct {
	ServerPort  int
	DocumentKey string

	StorageBackend string
	DatabaseURL    string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	JWTSecretKey string

	// The staff gate is a fixed literal pair, not an account system.
	StaffUsername string
	StaffPassword string
}

// Load reads configuration from environment variables, optionally loading a
// .env file first (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		backend = BackendR2
	}

	cfg := &Config{
		ServerPort:        port,
		DocumentKey:       getEnvOrDefault("DOCUMENT_KEY", defaultDocumentKey),
		StorageBackend:    backend,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		JWTSecretKey:      getEnvOrDefault("JWT_SECRET_KEY", "newells-hub"),
		StaffUsername:     getEnvOrDefault("STAFF_USERNAME", "staff"),
		StaffPassword:     getEnvOrDefault("STAFF_PASSWORD", "newells2024"),
	}

	switch backend {
	case BackendR2:
		if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" {
			return nil, fmt.Errorf("storage backend %q requires R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME", backend)
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("storage backend %q requires DATABASE_URL", backend)
		}
	case BackendMemory:
		// Nothing to validate; data is lost on restart.
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want %q, %q or %q)", backend, BackendR2, BackendPostgres, BackendMemory)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
