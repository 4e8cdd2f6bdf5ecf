package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Supabase
	Supabase SupabaseConfig

	// Server
	Port        string
	CORSOrigins []string
	Env         string
	LogLevel    string

	// Device storage for per-user data such as categories. Empty keeps it in memory.
	LocalStorePath string

	// Optional integrations
	S3     S3Config
	Gemini GeminiConfig
	AMQP   AMQPConfig

	// Receipt extraction requests allowed per minute per user
	ReceiptRateLimit int
}

// SupabaseConfig holds the hosted auth settings
type SupabaseConfig struct {
	URL     string
	AnonKey string

	// JWTSecret switches token validation to HS256. Empty uses the project's JWKS.
	JWTSecret string

	// JWTAlgorithm is the JWKS signing algorithm, ES256 or RS256
	JWTAlgorithm string

	JWTAudience      string
	PasswordRedirect string
}

// Issuer is the token issuer of the project's auth service
func (s SupabaseConfig) Issuer() string {
	return strings.TrimRight(s.URL, "/") + "/auth/v1"
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Enabled         bool
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for LocalStack local dev
}

// GeminiConfig holds the receipt extraction model settings
type GeminiConfig struct {
	APIKey string
	Model  string
}

// AMQPConfig holds the event broker settings. Empty URL disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Supabase: SupabaseConfig{
			URL:              getEnv("SUPABASE_URL", ""),
			AnonKey:          getEnv("SUPABASE_ANON_KEY", ""),
			JWTSecret:        getEnv("SUPABASE_JWT_SECRET", ""),
			JWTAlgorithm:     getEnv("SUPABASE_JWT_ALGORITHM", "ES256"),
			JWTAudience:      getEnv("SUPABASE_JWT_AUDIENCE", "authenticated"),
			PasswordRedirect: getEnv("PASSWORD_RESET_REDIRECT_URL", "http://localhost:3000/reset-password"),
		},
		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LocalStorePath: getEnv("LOCAL_STORE_PATH", "data/local.db"),
		S3: S3Config{
			Enabled:         getEnv("S3_BUCKET", "") != "",
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "gastify.events"),
		},
	}

	limit, err := strconv.Atoi(getEnv("RECEIPT_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("RECEIPT_RATE_LIMIT must be an integer: %w", err)
	}
	cfg.ReceiptRateLimit = limit

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.AnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if c.ReceiptRateLimit <= 0 {
		return fmt.Errorf("RECEIPT_RATE_LIMIT must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
