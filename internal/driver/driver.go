package driver

import (
	"fmt"
	"strings"

	// registers the "libsql" database/sql driver
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/lockplane/sqlsink/database"
	"github.com/lockplane/sqlsink/database/postgres"
	"github.com/lockplane/sqlsink/database/sqlite"
)

// NewDriver creates a new database driver based on the driver name.
func NewDriver(name string) (database.Driver, error) {
	switch name {
	case "postgres", "postgresql":
		return postgres.NewDriver(), nil
	case "sqlite", "sqlite3":
		return sqlite.NewDriver(), nil
	case "libsql":
		return sqlite.NewLibSQLDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", name)
	}
}

// DetectDriver guesses the driver name from a connection string
func DetectDriver(connString string) string {
	lower := strings.ToLower(strings.TrimSpace(connString))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "libsql://"),
		strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "ws://"),
		strings.HasPrefix(lower, "wss://"):
		return "libsql"
	case strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "file:"),
		lower == ":memory:",
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	}

	// lib/pq also accepts key=value connection strings
	return "postgres"
}

// DataSourceName converts a connection string into the form the registered
// database/sql driver expects.
func DataSourceName(name string, connString string) string {
	if name != "sqlite" && name != "sqlite3" {
		return connString
	}

	// modernc.org/sqlite takes a plain path or a file: URI
	if strings.HasPrefix(connString, "sqlite://") {
		return strings.TrimPrefix(connString, "sqlite://")
	}
	return connString
}
