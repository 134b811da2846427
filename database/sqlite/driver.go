package sqlite

import (
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lockplane/sqlsink/database"
)

// Driver implements database.Driver for SQLite and libSQL, which share the
// SQLite grammar.
type Driver struct {
	*Generator
	name          string
	sqlDriverName string
}

// NewDriver creates a new SQLite driver backed by modernc.org/sqlite
func NewDriver() *Driver {
	return &Driver{
		Generator:     NewGenerator(),
		name:          "sqlite",
		sqlDriverName: "sqlite",
	}
}

// NewLibSQLDriver creates a driver for libSQL servers (libsql:// URLs)
func NewLibSQLDriver() *Driver {
	return &Driver{
		Generator:     NewGenerator(),
		name:          "libsql",
		sqlDriverName: "libsql",
	}
}

// Name returns the database driver name
func (d *Driver) Name() string {
	return d.name
}

// SQLDriverName returns the name registered with database/sql
func (d *Driver) SQLDriverName() string {
	return d.sqlDriverName
}

// Categorize maps a SQLite error onto a database.ErrorCategory. Typed errors from
// modernc.org/sqlite carry a result code; libSQL errors only carry a message.
func (d *Driver) Categorize(err error) (database.ErrorCategory, int) {
	if err == nil {
		return database.CategoryOther, 0
	}

	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch code & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return database.CategoryConstraint, 0
		case sqlite3.SQLITE_ERROR:
			if category := database.CategorizeMessage(liteErr.Error()); category != database.CategoryOther {
				return category, 0
			}
		}
		return database.CategoryGeneric, code
	}

	return database.CategorizeMessage(err.Error()), 0
}

// Ensure Driver implements database.Driver
var _ database.Driver = (*Driver)(nil)

// Ensure Generator implements database.SQLGenerator
var _ database.SQLGenerator = (*Generator)(nil)
