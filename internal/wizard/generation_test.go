package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockplane/sqlsink/internal/config"
)

func TestGenerateFilesSQLite(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sqlsink.toml")

	env := EnvironmentInput{Name: "local", DatabaseType: "sqlite", FilePath: "data/events.db"}
	sink := SinkInput{Table: "events_{0}", Columns: []string{"day", "id"}, KeyColumns: []string{"id"}}

	result, err := GenerateFiles(configPath, env, sink, false)
	if err != nil {
		t.Fatalf("GenerateFiles() error = %v", err)
	}
	if !result.ConfigCreated || result.ConfigUpdated {
		t.Errorf("expected config to be created, got %+v", result)
	}
	if !result.GitignoreUpdated {
		t.Error("expected .gitignore to be updated")
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.DefaultEnvironment != "local" {
		t.Errorf("expected default environment local, got %q", cfg.DefaultEnvironment)
	}
	if cfg.Sink.Table != "events_{0}" || strings.Join(cfg.Sink.KeyColumns, ",") != "id" {
		t.Errorf("unexpected sink section %+v", cfg.Sink)
	}

	resolved, err := config.ResolveEnvironment(cfg, "")
	if err != nil {
		t.Fatalf("ResolveEnvironment() error = %v", err)
	}
	if resolved.DatabaseURL != "./data/events.db" {
		t.Errorf("expected dotenv SQLite path, got %q", resolved.DatabaseURL)
	}

	envFile := filepath.Join(dir, ".env.local")
	info, err := os.Stat(envFile)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", envFile, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected .env file mode 0600, got %o", info.Mode().Perm())
	}

	if _, err := os.Stat(filepath.Join(dir, "data", "events.db")); err != nil {
		t.Errorf("expected SQLite database file to be created: %v", err)
	}
}

func TestGenerateFilesMergesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sqlsink.toml")
	existing := `default_environment = "prod"

[environments.prod]
database_url = "postgres://prod/app"
`
	if err := os.WriteFile(configPath, []byte(existing), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	env := EnvironmentInput{Name: "dev", DatabaseType: "libsql", URL: "libsql://dev.turso.io", AuthToken: "tok"}
	sink := SinkInput{Table: "events", Columns: []string{"id"}}

	result, err := GenerateFiles(configPath, env, sink, false)
	if err != nil {
		t.Fatalf("GenerateFiles() error = %v", err)
	}
	if !result.ConfigUpdated {
		t.Error("expected config to be reported as updated")
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("merged config does not load: %v", err)
	}
	if cfg.DefaultEnvironment != "prod" {
		t.Errorf("expected default environment to be kept, got %q", cfg.DefaultEnvironment)
	}
	if cfg.Environments["prod"].DatabaseURL != "postgres://prod/app" {
		t.Errorf("expected prod environment to be kept, got %+v", cfg.Environments)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".env.dev"))
	if err != nil {
		t.Fatalf("failed to read .env.dev: %v", err)
	}
	if !strings.Contains(string(data), "LIBSQL_URL=libsql://dev.turso.io") || !strings.Contains(string(data), "LIBSQL_AUTH_TOKEN=tok") {
		t.Errorf("unexpected .env.dev content:\n%s", data)
	}
}

func TestGenerateFilesForceReplaces(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sqlsink.toml")
	if err := os.WriteFile(configPath, []byte("[environments.old]\ndatabase_url = \"old.db\"\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	env := EnvironmentInput{Name: "local", DatabaseType: "postgres", Host: "localhost", Port: "5432", Database: "app", User: "u", Password: "p"}
	if _, err := GenerateFiles(configPath, env, SinkInput{Table: "t", Columns: []string{"id"}}, true); err != nil {
		t.Fatalf("GenerateFiles() error = %v", err)
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("config does not load: %v", err)
	}
	if _, ok := cfg.Environments["old"]; ok {
		t.Error("expected --force to drop the old environment")
	}
}

func TestUpdateGitignoreIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".gitignore")
	if err := os.WriteFile(path, []byte("bin/"), 0o644); err != nil {
		t.Fatalf("failed to write .gitignore: %v", err)
	}

	updated, err := updateGitignore(path)
	if err != nil || !updated {
		t.Fatalf("expected first update to write, got %v, %v", updated, err)
	}
	updated, err = updateGitignore(path)
	if err != nil || updated {
		t.Fatalf("expected second update to be a no-op, got %v, %v", updated, err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "bin/\n") {
		t.Errorf("expected existing entries to be kept, got:\n%s", data)
	}
}
