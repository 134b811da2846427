package wizard

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lockplane/sqlsink/internal/config"
)

// GenerateFiles writes sqlsink.toml, the .env file holding the connection
// string, and the .gitignore entry that keeps it out of version control. An
// existing config is merged into unless force is set.
func GenerateFiles(configPath string, env EnvironmentInput, sink SinkInput, force bool) (*InitResult, error) {
	if configPath == "" {
		configPath = config.FileName
	}
	result := &InitResult{ConfigPath: configPath}

	cfg := &config.Config{}
	if _, err := os.Stat(configPath); err == nil {
		if !force {
			existing, err := config.LoadConfigFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load existing %s: %w", configPath, err)
			}
			cfg = existing
		}
		result.ConfigUpdated = true
	} else {
		result.ConfigCreated = true
	}

	if cfg.Environments == nil {
		cfg.Environments = map[string]config.EnvironmentConfig{}
	}
	// credentials live in the .env file, never in sqlsink.toml
	cfg.Environments[env.Name] = config.EnvironmentConfig{}
	if cfg.DefaultEnvironment == "" {
		cfg.DefaultEnvironment = env.Name
	}
	cfg.Sink.Table = sink.Table
	cfg.Sink.Columns = sink.Columns
	cfg.Sink.KeyColumns = sink.KeyColumns

	if err := cfg.Save(configPath); err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(configPath)
	envFilePath := filepath.Join(baseDir, ".env."+env.Name)
	if err := generateEnvFile(envFilePath, env); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", envFilePath, err)
	}
	result.EnvFiles = append(result.EnvFiles, envFilePath)

	updated, err := updateGitignore(filepath.Join(baseDir, ".gitignore"))
	if err != nil {
		return nil, fmt.Errorf("failed to update .gitignore: %w", err)
	}
	result.GitignoreUpdated = updated

	if env.DatabaseType == "sqlite" {
		dbPath := BuildSQLiteConnectionString(env)
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(baseDir, dbPath)
		}
		if err := createSQLiteDatabaseFile(dbPath); err != nil {
			return nil, fmt.Errorf("failed to create SQLite database %s: %w", dbPath, err)
		}
	}

	return result, nil
}

// createSQLiteDatabaseFile creates an empty SQLite database file
func createSQLiteDatabaseFile(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return nil
	}

	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer func() { _ = db.Close() }()

	// SQLite won't create the file until something is written
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS _sqlsink_init (id INTEGER PRIMARY KEY); DROP TABLE IF EXISTS _sqlsink_init;")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	return nil
}

func generateEnvFile(path string, env EnvironmentInput) error {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# sqlsink environment: %s\n", env.Name))
	b.WriteString("# Generated by: sqlsink init\n")
	b.WriteString("#\n")
	b.WriteString("# Do not commit this file if it contains secrets!\n")

	switch env.DatabaseType {
	case "postgres":
		b.WriteString(fmt.Sprintf("POSTGRES_URL=%s\n", BuildPostgresConnectionString(env)))
	case "sqlite":
		b.WriteString(fmt.Sprintf("SQLITE_DB_PATH=%s\n", BuildSQLiteConnectionString(env)))
	case "libsql":
		b.WriteString(fmt.Sprintf("LIBSQL_URL=%s\n", env.URL))
		b.WriteString(fmt.Sprintf("LIBSQL_AUTH_TOKEN=%s\n", env.AuthToken))
	default:
		return fmt.Errorf("unsupported database type: %s", env.DatabaseType)
	}

	// owner read/write only
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

// updateGitignore adds the .env.* pattern unless it is already there.
func updateGitignore(gitignorePath string) (bool, error) {
	content := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		content = string(data)
	}

	if strings.Contains(content, ".env.*") {
		return false, nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += `
# sqlsink environment files (added by sqlsink init)
.env.*
!.env.*.example
`

	if err := os.WriteFile(gitignorePath, []byte(content), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
