package wizard

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lockplane/sqlsink/internal/driver"
	"github.com/lockplane/sqlsink/internal/session"
)

var templateRef = regexp.MustCompile(`\{\d+\}`)

// ValidateEnvironmentName checks if an environment name is valid
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}

	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return fmt.Errorf("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}

	return nil
}

// ValidatePort checks if a port number is valid
func ValidatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateTableTemplate checks a table name template such as "events_{0}".
func ValidateTableTemplate(template string) error {
	template = strings.TrimSpace(template)
	if template == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	rest := templateRef.ReplaceAllString(template, "")
	if strings.ContainsAny(rest, "{}") {
		return fmt.Errorf("table name may only reference cells as {N}")
	}
	return nil
}

// ParseColumnList splits a comma-separated list, trimming blanks.
func ParseColumnList(list string) []string {
	var cols []string
	for _, part := range strings.Split(list, ",") {
		if col := strings.TrimSpace(part); col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

// ValidateColumns checks the column list and that every key is one of them.
func ValidateColumns(columns []string, keys []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	for i, col := range columns {
		if slices.Contains(columns[:i], col) {
			return fmt.Errorf("column %q is listed twice", col)
		}
	}
	for _, key := range keys {
		if !slices.Contains(columns, key) {
			return fmt.Errorf("key column %q is not in the column list", key)
		}
	}
	return nil
}

// TestConnection opens the database the same way ingest does and pings it.
func TestConnection(connStr string, dbType string) error {
	d, err := driver.NewDriver(dbType)
	if err != nil {
		return err
	}

	opener := session.SQLOpener{Driver: d, DSN: driver.DataSourceName(dbType, connStr)}
	factory, err := opener.Open(context.Background())
	if err != nil {
		return err
	}
	return factory.Close()
}

// BuildConnectionString renders the connection string for env.
func BuildConnectionString(env EnvironmentInput) string {
	switch env.DatabaseType {
	case "postgres":
		return BuildPostgresConnectionString(env)
	case "sqlite":
		return BuildSQLiteConnectionString(env)
	case "libsql":
		return BuildLibSQLConnectionString(env)
	default:
		return ""
	}
}

// BuildPostgresConnectionString constructs a PostgreSQL connection string
func BuildPostgresConnectionString(env EnvironmentInput) string {
	// Auto-detect SSL mode based on host
	sslMode := env.SSLMode
	if sslMode == "" {
		if env.Host == "localhost" || env.Host == "127.0.0.1" {
			sslMode = "disable"
		} else {
			sslMode = "require"
		}
	}

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(env.User, env.Password),
		Host:     env.Host + ":" + env.Port,
		Path:     "/" + env.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// BuildSQLiteConnectionString constructs a SQLite connection string
func BuildSQLiteConnectionString(env EnvironmentInput) string {
	filePath := env.FilePath
	if filePath == "" {
		filePath = "./sqlsink.db"
	} else if !strings.HasPrefix(filePath, "./") && !strings.HasPrefix(filePath, "/") {
		filePath = "./" + filePath
	}

	return filePath
}

// BuildLibSQLConnectionString constructs a libSQL connection string
func BuildLibSQLConnectionString(env EnvironmentInput) string {
	if env.AuthToken != "" {
		return fmt.Sprintf("%s?authToken=%s", env.URL, url.QueryEscape(env.AuthToken))
	}
	return env.URL
}
