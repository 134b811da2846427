package postgres

import (
	"fmt"
	"strings"

	"github.com/lockplane/sqlsink/database"
)

// Generator implements database.SQLGenerator for PostgreSQL
type Generator struct{}

// NewGenerator creates a new PostgreSQL SQL generator
func NewGenerator() *Generator {
	return &Generator{}
}

// CreateTable generates PostgreSQL SQL to create a table
func (g *Generator) CreateTable(table database.Table) (string, string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", g.QuoteIdentifier(table.Name)))

	keys := table.PrimaryKey()

	// Add columns
	for i, col := range table.Columns {
		sb.WriteString("  ")
		sb.WriteString(g.FormatColumnDefinition(col))
		if i < len(table.Columns)-1 || len(keys) > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	if len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = g.QuoteIdentifier(k)
		}
		sb.WriteString(fmt.Sprintf("  PRIMARY KEY (%s)\n", strings.Join(quoted, ", ")))
	}

	sb.WriteString(")")

	description := fmt.Sprintf("Create table %s", table.Name)
	return sb.String(), description
}

// Insert generates a multi-row PostgreSQL INSERT
func (g *Generator) Insert(tableName string, columns []string, values [][]string) string {
	return database.BuildInsert(g.QuoteIdentifier, tableName, columns, values)
}

// Update generates a PostgreSQL UPDATE
func (g *Generator) Update(tableName string, set []database.Assignment, where []database.Assignment) string {
	return database.BuildUpdate(g.QuoteIdentifier, tableName, set, where)
}

// FormatColumnDefinition formats a column definition for CREATE statements.
// Primary keys are emitted as a table constraint by CreateTable.
func (g *Generator) FormatColumnDefinition(col database.Column) string {
	var sb strings.Builder

	// Column name and type
	sb.WriteString(fmt.Sprintf("%s %s", g.QuoteIdentifier(col.Name), col.Type))

	// Nullability
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}

	// Default value
	if col.Default != nil {
		sb.WriteString(fmt.Sprintf(" DEFAULT %s", *col.Default))
	}

	return sb.String()
}

// QuoteIdentifier quotes a PostgreSQL identifier
func (g *Generator) QuoteIdentifier(name string) string {
	return database.QuoteIdentifier(name)
}

// ParameterPlaceholder returns the PostgreSQL parameter placeholder ($1, $2, etc.)
func (g *Generator) ParameterPlaceholder(position int) string {
	return fmt.Sprintf("$%d", position)
}
