package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var supportedDrivers = map[string]bool{
	"postgres": true,
	"sqlite":   true,
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	if !supportedDrivers[cfg.DBDriver] {
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.DBDriver == "postgres" && cfg.DatabaseURL == "" {
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "required when DATABASE_URL is not set"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "required when DATABASE_URL is not set"})
		}
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "session signing secret is required"})
	}

	if cfg.Env == Production {
		if cfg.DBDriver != "postgres" {
			errs = append(errs, ValidationError{"DB_DRIVER", "production requires postgres"})
		}
		if len(cfg.JWTSecret) < 32 {
			errs = append(errs, ValidationError{"JWT_SECRET", "must be at least 32 characters in production"})
		}
	}

	if cfg.SessionTTL <= 0 {
		errs = append(errs, ValidationError{"SESSION_TTL", "must be positive"})
	}

	if len(errs) > 0 {
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}
