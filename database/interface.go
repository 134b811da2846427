package database

import "strings"

// Table describes a table the sink may create on demand.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column represents a table column
type Column struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default,omitempty"`
	IsPrimaryKey bool    `json:"is_primary_key"`
}

// PrimaryKey returns the names of the primary key columns in declaration order.
func (t Table) PrimaryKey() []string {
	var keys []string
	for _, col := range t.Columns {
		if col.IsPrimaryKey {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// Assignment pairs a column with the value expression written for it.
type Assignment struct {
	Column string
	Value  string
}

// ErrorCategory is the driver-independent shape of a failed statement.
type ErrorCategory int

const (
	// CategoryOther covers failures the driver gives no usable detail for.
	CategoryOther ErrorCategory = iota
	// CategoryGrammar means the statement references a missing table or column, or
	// does not parse.
	CategoryGrammar
	// CategoryConstraint means the data conflicts with an integrity rule.
	CategoryConstraint
	// CategoryGeneric is a driver-level error that carries a numeric code.
	CategoryGeneric
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryGrammar:
		return "grammar"
	case CategoryConstraint:
		return "constraint"
	case CategoryGeneric:
		return "generic"
	default:
		return "other"
	}
}

// SQLGenerator defines the interface for generating database-specific SQL
type SQLGenerator interface {
	// CreateTable generates SQL to create a table
	CreateTable(table Table) (sql string, description string)

	// Insert generates a multi-row INSERT. Each entry of values holds one row of
	// value expressions in column order.
	Insert(tableName string, columns []string, values [][]string) string

	// Update generates an UPDATE setting set and filtering on where (AND-ed).
	Update(tableName string, set []Assignment, where []Assignment) string

	// FormatColumnDefinition formats a column definition for CREATE TABLE
	FormatColumnDefinition(col Column) string

	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string

	// ParameterPlaceholder returns the parameter placeholder for this database
	// PostgreSQL: $1, $2, etc.
	// SQLite: ?, ?, etc.
	ParameterPlaceholder(position int) string
}

// ErrorCategorizer turns a driver error into a category and vendor code.
type ErrorCategorizer interface {
	Categorize(err error) (ErrorCategory, int)
}

// Driver represents a database dialect: SQL generation plus error translation.
type Driver interface {
	SQLGenerator
	ErrorCategorizer

	// Name returns the database driver name (e.g., "postgres", "sqlite")
	Name() string

	// SQLDriverName returns the name registered with database/sql
	SQLDriverName() string
}

// QuoteIdentifier double-quotes an identifier, doubling embedded quotes. Both
// PostgreSQL and SQLite accept this form.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CategorizeMessage applies the message rules shared by the SQLite family, whose
// errors do not always arrive typed.
func CategorizeMessage(msg string) ErrorCategory {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"),
		strings.Contains(msg, "has no column named"),
		strings.Contains(msg, "syntax error"):
		return CategoryGrammar
	case strings.Contains(msg, "constraint failed"):
		return CategoryConstraint
	default:
		return CategoryOther
	}
}

// BuildInsert renders a multi-row INSERT with already-quoted identifiers.
func BuildInsert(quote func(string) string, tableName string, columns []string, values [][]string) string {
	if len(columns) == 0 || len(values) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quote(tableName))
	sb.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(col))
	}
	sb.WriteString(") VALUES ")
	for i, row := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(strings.Join(row, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// BuildUpdate renders an UPDATE with already-quoted identifiers. An empty set or
// where list yields an empty statement.
func BuildUpdate(quote func(string) string, tableName string, set []Assignment, where []Assignment) string {
	if len(set) == 0 || len(where) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(quote(tableName))
	sb.WriteString(" SET ")
	for i, a := range set {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(a.Column))
		sb.WriteString(" = ")
		sb.WriteString(a.Value)
	}
	sb.WriteString(" WHERE ")
	for i, a := range where {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(quote(a.Column))
		sb.WriteString(" = ")
		sb.WriteString(a.Value)
	}
	return sb.String()
}
