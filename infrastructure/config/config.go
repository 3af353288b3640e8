package config

import "time"

// Config aggregates the process-wide settings read from the environment
// variables named in spec §6.
type Config struct {
	Environment string // API_ENVIRONMENT
	APISecret   string // API_SECRET_KEY
	BaseURL     string // API_BASE_URL

	DatabaseURL string // DATABASE_URL

	GoogleOAuthRedirectURI string // GOOGLE_OAUTH_REDIRECT_URI

	CORSAllowedOrigins []string // CORS_ALLOWED_ORIGINS

	HTTPAddr        string
	HTTPDeadline    time.Duration
	OutboundTimeout time.Duration // Sheets / identity-provider calls

	WorkerPoolSize int
}

// defaultAPISecret is never valid in production; it exists only so
// development runs without configuring a signing key.
const defaultAPISecret = "development-only-insecure-signing-key"

// Load reads Config from the process environment. It does not itself fail
// the process; callers invoke Validate() once at start-up.
func Load() *Config {
	return &Config{
		Environment:            EnvOrDefault("API_ENVIRONMENT", "development"),
		APISecret:              EnvOrDefault("API_SECRET_KEY", defaultAPISecret),
		BaseURL:                EnvOrDefault("API_BASE_URL", "http://localhost:8080"),
		DatabaseURL:            EnvOrDefault("DATABASE_URL", ""),
		GoogleOAuthRedirectURI: EnvOrDefault("GOOGLE_OAUTH_REDIRECT_URI", ""),
		CORSAllowedOrigins:     EnvCSV("CORS_ALLOWED_ORIGINS"),
		HTTPAddr:               EnvOrDefault("HTTP_ADDR", ":8080"),
		HTTPDeadline:           EnvDuration("HTTP_DEADLINE", 30*time.Second),
		OutboundTimeout:        EnvDuration("OUTBOUND_TIMEOUT", 30*time.Second),
		WorkerPoolSize:         EnvInt("WORKER_POOL_SIZE", 4),
	}
}

// IsProduction reports whether this Config is in production posture.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate enforces the production start-up invariants from spec §4.1/§7:
// the process must never serve traffic with a default or missing signing
// key.
func (c *Config) Validate() error {
	if c.IsProduction() && c.APISecret == defaultAPISecret {
		return &MisconfigurationError{Reason: "API_SECRET_KEY must not be the bundled default value in production"}
	}
	if c.APISecret == "" {
		return &MisconfigurationError{Reason: "API_SECRET_KEY is required"}
	}
	return nil
}

// MisconfigurationError signals a start-up check that must stop the process.
type MisconfigurationError struct {
	Reason string
}

func (e *MisconfigurationError) Error() string {
	return "misconfiguration: " + e.Reason
}
