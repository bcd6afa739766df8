package config

import (
	"os"
	"strings"
)

// Environment is the deployment the process runs in. It decides where
// secrets come from, how strict validation is and how gin and the session
// cookie behave.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV. CI=true always wins, anything unknown is development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := Environment(strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))); env {
	case Production, Test, Development:
		return env
	default:
		return Development
	}
}

// Ephemeral reports whether databases in this environment are throwaway
func (e Environment) Ephemeral() bool {
	return e == Test || e == CI
}

// DefaultSQLitePath is used when neither SQLITE_PATH nor a postgres DSN is set.
// Test runs get their own file so they never touch a developer's pantry.
func (e Environment) DefaultSQLitePath() string {
	if e.Ephemeral() {
		return "foodflow_test.db"
	}
	return "foodflow.db"
}

// GinMode maps the environment onto gin's run modes. An unset environment
// leaves gin alone.
func (e Environment) GinMode() string {
	switch e {
	case Production:
		return "release"
	case Test, CI:
		return "test"
	case Development:
		return "debug"
	default:
		return ""
	}
}

// SecureCookies reports whether the session cookie needs the Secure flag
func (e Environment) SecureCookies() bool {
	return e == Production
}
