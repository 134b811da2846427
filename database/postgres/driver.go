package postgres

import (
	"errors"
	"strconv"

	"github.com/lib/pq"

	"github.com/lockplane/sqlsink/database"
)

// SQLSTATE classes reported as generic driver errors. The class number is used
// as the vendor code so it is never zero.
var genericClasses = map[pq.ErrorClass]bool{
	"08": true, // connection exception
	"40": true, // transaction rollback
	"53": true, // insufficient resources
	"57": true, // operator intervention
	"58": true, // system error
}

// Driver implements database.Driver for PostgreSQL
type Driver struct {
	*Generator
}

// NewDriver creates a new PostgreSQL driver
func NewDriver() *Driver {
	return &Driver{
		Generator: NewGenerator(),
	}
}

// Name returns the database driver name
func (d *Driver) Name() string {
	return "postgres"
}

// SQLDriverName returns the lib/pq registration name
func (d *Driver) SQLDriverName() string {
	return "postgres"
}

// Categorize maps a lib/pq error onto a database.ErrorCategory by SQLSTATE class.
func (d *Driver) Categorize(err error) (database.ErrorCategory, int) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return database.CategoryOther, 0
	}

	class := pqErr.Code.Class()
	switch {
	case class == "42":
		return database.CategoryGrammar, 0
	case class == "23":
		return database.CategoryConstraint, 0
	case genericClasses[class]:
		code, convErr := strconv.Atoi(string(class))
		if convErr != nil {
			return database.CategoryOther, 0
		}
		return database.CategoryGeneric, code
	default:
		return database.CategoryOther, 0
	}
}

// Ensure Driver implements database.Driver
var _ database.Driver = (*Driver)(nil)

// Ensure Generator implements database.SQLGenerator
var _ database.SQLGenerator = (*Generator)(nil)
