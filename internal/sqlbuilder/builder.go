// Package sqlbuilder renders the statements the sink executes from a
// SinkConfig and a database dialect.
package sqlbuilder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lockplane/sqlsink/database"
	"github.com/lockplane/sqlsink/internal/config"
	"github.com/lockplane/sqlsink/internal/sink"
)

var (
	templateRef = regexp.MustCompile(`\{(\d+)\}`)
	unsafeChars = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Builder implements sink.SQLBuilder.
type Builder struct {
	cfg     config.SinkConfig
	dialect database.SQLGenerator
	keys    map[string]bool
}

var _ sink.SQLBuilder = (*Builder)(nil)

// New returns a Builder for cfg, with defaults applied, rendering SQL for dialect.
func New(cfg config.SinkConfig, dialect database.SQLGenerator) *Builder {
	cfg = cfg.WithDefaults()
	keys := make(map[string]bool, len(cfg.KeyColumns))
	for _, k := range cfg.KeyColumns {
		keys[k] = true
	}
	return &Builder{cfg: cfg, dialect: dialect, keys: keys}
}

// CheckMandatory fails when the sink section is incomplete.
func (b *Builder) CheckMandatory() error {
	if b.dialect == nil {
		return fmt.Errorf("no SQL dialect configured")
	}
	return b.cfg.CheckMandatory()
}

// TableName expands the table template against row. {N} becomes cell N,
// lower-cased and reduced to [a-z0-9_]; cells past the end of the row render empty.
func (b *Builder) TableName(row sink.Row) string {
	return templateRef.ReplaceAllStringFunc(b.cfg.Table, func(ref string) string {
		idx, err := strconv.Atoi(ref[1 : len(ref)-1])
		if err != nil || idx >= len(row) {
			return ""
		}
		return sanitize(row[idx])
	})
}

func sanitize(cell string) string {
	return unsafeChars.ReplaceAllString(strings.ToLower(cell), "_")
}

// InsertStatement renders one multi-row insert with a parameter per cell.
func (b *Builder) InsertStatement(tableName string, rows []sink.Row) string {
	values := make([][]string, len(rows))
	for r := range rows {
		values[r] = make([]string, len(b.cfg.Columns))
		for c := range b.cfg.Columns {
			values[r][c] = ParameterName(r, c)
		}
	}
	return b.dialect.Insert(tableName, b.cfg.Columns, values)
}

// CreateTableStatement renders the DDL for the table sample belongs to.
func (b *Builder) CreateTableStatement(sample sink.Row) string {
	table := database.Table{Name: b.TableName(sample)}
	for _, col := range b.cfg.Columns {
		table.Columns = append(table.Columns, database.Column{
			Name:         col,
			Type:         b.cfg.ColumnType,
			Nullable:     !b.keys[col],
			IsPrimaryKey: b.keys[col],
		})
	}
	sql, _ := b.dialect.CreateTable(table)
	return sql
}

// UpdateStatement overwrites the non-key columns of the row matching its key
// columns. Without key columns the statement is empty.
func (b *Builder) UpdateStatement(tableName string, row sink.Row) string {
	var set, where []database.Assignment
	for c, col := range b.cfg.Columns {
		a := database.Assignment{Column: col, Value: ParameterName(0, c)}
		if b.keys[col] {
			where = append(where, a)
		} else {
			set = append(set, a)
		}
	}
	return b.dialect.Update(tableName, set, where)
}

// ParameterName is the named placeholder for cell c of row r.
func ParameterName(r, c int) string {
	return fmt.Sprintf(":_%d_%d", r, c)
}
