// Package dbconn opens and guards the database handle a chat session talks to.
//
// One handle per session, selected by Kind. Every statement that reaches the
// database through Conn.Query is checked to be a single read-only SELECT
// first; on top of that each driver enforces read-only access as far as its
// protocol allows.
package dbconn

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported database backends.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindMySQL    Kind = "mysql"
	KindPostgres Kind = "postgres"
)

// ParseKind normalizes user input into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	case "mysql", "mariadb":
		return KindMySQL, nil
	case "postgres", "postgresql", "pgx":
		return KindPostgres, nil
	default:
		return "", &ConfigError{Field: "kind", Reason: fmt.Sprintf("unsupported database kind %q", s)}
	}
}

// Config carries everything needed to reach one database.
// Which fields are required depends on Kind.
type Config struct {
	Kind       Kind
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SQLitePath string

	// MaxResultRows bounds how many rows a single Query returns to the agent.
	// Zero means DefaultMaxResultRows.
	MaxResultRows int
}

// DefaultMaxResultRows caps result sets handed to the LLM.
const DefaultMaxResultRows = 50

// Validate checks that the fields required by Kind are present.
func (c Config) Validate() error {
	switch c.Kind {
	case KindSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return &ConfigError{Field: "sqlite_path", Reason: "sqlite requires a database file path"}
		}
	case KindMySQL, KindPostgres:
		for _, f := range []struct{ name, val string }{
			{"host", c.Host},
			{"username", c.User},
			{"password", c.Password},
			{"database_name", c.Database},
		} {
			if strings.TrimSpace(f.val) == "" {
				return &ConfigError{Field: f.name, Reason: fmt.Sprintf("%s is required for %s", f.name, c.Kind)}
			}
		}
	default:
		return &ConfigError{Field: "kind", Reason: fmt.Sprintf("unsupported database kind %q", string(c.Kind))}
	}
	return nil
}

// ConfigError reports a bad or missing connection field. The session never
// starts; the caller surfaces it to the user for correction.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid connection config (%s): %s", e.Field, e.Reason)
}

// ConnectError reports a database that could not be reached or authenticated.
type ConnectError struct {
	Kind Kind
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
