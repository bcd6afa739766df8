package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver      string
	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	MigrationsDir string

	// Redis configuration (optional)
	RedisURL string

	// Session configuration
	JWTSecret  string
	SessionTTL time.Duration

	// LLM configuration
	LLMAPIKey  string
	LLMAPIURL  string
	LLMModel   string
	LLMTimeout time.Duration

	// Object storage for report exports (optional)
	S3Bucket  string
	AWSRegion string
}

const (
	defaultLLMAPIURL  = "https://api.groq.com/openai/v1/chat/completions"
	defaultLLMModel   = "llama-3.3-70b-versatile"
	defaultSessionTTL = 7 * 24 * time.Hour
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Env: env}

	switch env {
	case CI, Development, Test:
		loadEnvConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig reads every value from the process environment
func loadEnvConfig(cfg *Config) {
	cfg.ServerPort = os.Getenv("SERVER_PORT")
	cfg.ServerHost = os.Getenv("SERVER_HOST")
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	cfg.DBDriver = os.Getenv("DB_DRIVER")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = os.Getenv("DB_PORT")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = os.Getenv("DB_SSL_MODE")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	cfg.MigrationsDir = os.Getenv("MIGRATIONS_DIR")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.JWTSecret = firstNonEmpty(os.Getenv("JWT_SECRET"), os.Getenv("SECRET_KEY"))
	cfg.SessionTTL = parseDuration(os.Getenv("SESSION_TTL"), 0)
	cfg.LLMAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.LLMAPIURL = os.Getenv("LLM_API_URL")
	cfg.LLMModel = os.Getenv("LLM_MODEL")
	cfg.LLMTimeout = parseDuration(os.Getenv("LLM_TIMEOUT"), 0)
	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
}

// loadProdConfig loads configuration for production, preferring Docker secrets
// over environment variables for sensitive values
func loadProdConfig(cfg *Config) {
	loadEnvConfig(cfg)

	if v := readSecret("database_url"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := readSecret("db_user"); v != "" {
		cfg.DBUser = v
	}
	if v := readSecret("db_password"); v != "" {
		cfg.DBPassword = v
	}
	if v := readSecret("jwt_secret"); v != "" {
		cfg.JWTSecret = v
	}
	if v := readSecret("redis_url"); v != "" {
		cfg.RedisURL = v
	}
	if v := readSecret("groq_api_key"); v != "" {
		cfg.LLMAPIKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.DBDriver == "" {
		if cfg.DatabaseURL != "" || cfg.DBHost != "" {
			cfg.DBDriver = "postgres"
		} else {
			cfg.DBDriver = "sqlite"
		}
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = cfg.Env.DefaultSQLitePath()
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.LLMAPIURL == "" {
		cfg.LLMAPIURL = defaultLLMAPIURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultLLMModel
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:5173"}
	}
	if cfg.JWTSecret == "" && cfg.Env != Production {
		cfg.JWTSecret = "dev-secret-key-change-in-production"
	}
}

// PostgresDSN returns the connection string for the postgres driver
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// parseDuration accepts Go durations ("30s") or a plain number of seconds
func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
