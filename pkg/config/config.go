package config

import (
	"os"
	"time"
)

// Config holds process configuration.
type Config struct {
	Port        string
	LogLevel    string
	Environment string

	DatabaseURL string
	RedisAddr   string

	BaseURL        string
	DocgenEndpoint string

	SignatureSecret string

	CallTimeout      time.Duration
	ReminderInterval time.Duration

	TenantProfilesDir string

	// Document store selection: "fs" (lite mode), "s3" or "gcs".
	DocumentStore  string
	DocumentBucket string
	DocumentDir    string

	OTelEnabled  bool
	OTelEndpoint string
}

// Production reports whether the process runs against the production portal.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		// Default to an embedded local database
		dbURL = "file:veltia.db?_pragma=busy_timeout(5000)"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	docgen := os.Getenv("DOCGEN_ENDPOINT")
	if docgen == "" {
		docgen = "http://localhost:8090/render"
	}

	secret := os.Getenv("SIGNATURE_SECRET")
	if secret == "" {
		secret = "dev-only-signature-secret"
	}

	profilesDir := os.Getenv("TENANT_PROFILES_DIR")
	if profilesDir == "" {
		profilesDir = "profiles"
	}

	docStore := os.Getenv("DOCUMENT_STORE")
	if docStore == "" {
		docStore = "fs"
	}
	docDir := os.Getenv("DOCUMENT_DIR")
	if docDir == "" {
		docDir = "data/documents"
	}

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "localhost:4317"
	}

	return &Config{
		Port:              port,
		LogLevel:          logLevel,
		Environment:       env,
		DatabaseURL:       dbURL,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		BaseURL:           baseURL,
		DocgenEndpoint:    docgen,
		SignatureSecret:   secret,
		CallTimeout:       durationEnv("CALL_TIMEOUT", 30*time.Second),
		ReminderInterval:  durationEnv("REMINDER_INTERVAL", time.Hour),
		TenantProfilesDir: profilesDir,
		DocumentStore:     docStore,
		DocumentBucket:    os.Getenv("DOCUMENT_BUCKET"),
		DocumentDir:       docDir,
		OTelEnabled:       os.Getenv("OTEL_ENABLED") == "true",
		OTelEndpoint:      otelEndpoint,
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
