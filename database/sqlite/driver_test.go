package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/lockplane/sqlsink/database"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestNewDriver(t *testing.T) {
	driver := NewDriver()

	if driver == nil {
		t.Fatal("Expected non-nil driver")
	}

	if driver.Generator == nil {
		t.Error("Expected non-nil generator")
	}
}

func TestDriver_Name(t *testing.T) {
	tests := []struct {
		driver  *Driver
		name    string
		sqlName string
	}{
		{NewDriver(), "sqlite", "sqlite"},
		{NewLibSQLDriver(), "libsql", "libsql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.driver.Name() != tt.name {
				t.Errorf("Expected name '%s', got '%s'", tt.name, tt.driver.Name())
			}
			if tt.driver.SQLDriverName() != tt.sqlName {
				t.Errorf("Expected sql driver name '%s', got '%s'", tt.sqlName, tt.driver.SQLDriverName())
			}
		})
	}
}

func TestDriver_CreateTable(t *testing.T) {
	driver := NewDriver()
	db := getTestDB(t)
	ctx := context.Background()

	table := database.Table{
		Name: "test_table",
		Columns: []database.Column{
			{Name: "day", Type: "TEXT", IsPrimaryKey: true},
			{Name: "id", Type: "TEXT", IsPrimaryKey: true},
			{Name: "payload", Type: "TEXT", Nullable: true},
		},
	}

	sql, desc := driver.CreateTable(table)

	if !strings.Contains(sql, `PRIMARY KEY ("day", "id")`) {
		t.Errorf("Expected composite primary key, got: %s", sql)
	}
	if desc != "Create table test_table" {
		t.Errorf("Unexpected description: %s", desc)
	}

	if _, err := db.ExecContext(ctx, sql); err != nil {
		t.Fatalf("Generated SQL failed to execute: %v\n%s", err, sql)
	}
}

func TestDriver_Categorize(t *testing.T) {
	driver := NewDriver()
	db := getTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE t ("id" TEXT PRIMARY KEY NOT NULL, "v" TEXT)`); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO t (id, v) VALUES ('a', '1')`); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	tests := []struct {
		name     string
		sql      string
		category database.ErrorCategory
	}{
		{"missing table", `INSERT INTO missing (id) VALUES ('x')`, database.CategoryGrammar},
		{"missing column", `INSERT INTO t (id, nope) VALUES ('x', 'y')`, database.CategoryGrammar},
		{"syntax error", `INSERT INTO t VALUS ('x')`, database.CategoryGrammar},
		{"unique violation", `INSERT INTO t (id, v) VALUES ('a', '2')`, database.CategoryConstraint},
		{"not null violation", `INSERT INTO t (id, v) VALUES (NULL, '2')`, database.CategoryConstraint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.ExecContext(ctx, tt.sql)
			if err == nil {
				t.Fatalf("Expected %q to fail", tt.sql)
			}
			category, _ := driver.Categorize(err)
			if category != tt.category {
				t.Errorf("Categorize(%v) = %v, want %v", err, category, tt.category)
			}
		})
	}
}

func TestDriver_CategorizeUntyped(t *testing.T) {
	driver := NewLibSQLDriver()

	tests := []struct {
		msg      string
		category database.ErrorCategory
	}{
		{"SQLite error: no such table: events", database.CategoryGrammar},
		{"SQLITE_CONSTRAINT: UNIQUE constraint failed: events.id", database.CategoryConstraint},
		{"failed to connect to server", database.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			category, code := driver.Categorize(errors.New(tt.msg))
			if category != tt.category {
				t.Errorf("Categorize(%q) = %v, want %v", tt.msg, category, tt.category)
			}
			if code != 0 {
				t.Errorf("Expected zero code for untyped error, got %d", code)
			}
		})
	}
}

func TestGenerator_Insert(t *testing.T) {
	gen := NewGenerator()

	sql := gen.Insert("t", []string{"a"}, [][]string{{":_0_0"}})
	if sql != `INSERT INTO "t" ("a") VALUES (:_0_0)` {
		t.Errorf("Unexpected insert: %s", sql)
	}
	if gen.ParameterPlaceholder(3) != "?" {
		t.Errorf("Expected '?' placeholder")
	}
}

func TestDriver_ImplementsInterface(t *testing.T) {
	var _ database.Driver = (*Driver)(nil)
	var _ database.SQLGenerator = (*Generator)(nil)
}
