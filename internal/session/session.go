// Package session wraps a single live database connection behind the small
// prepare/bind/execute surface the sink needs.
package session

import (
	"context"
	"fmt"

	"github.com/lockplane/sqlsink/database"
)

// Statement is a prepared statement whose named parameters are bound as strings.
type Statement interface {
	// Text returns the statement as written, before placeholder rewriting.
	Text() string

	// ParameterNames returns each distinct named parameter in order of appearance.
	ParameterNames() []string

	// SetString binds value to the named parameter.
	SetString(name string, value string) error

	// Exec runs the statement and reports the number of affected rows. Failures
	// are returned as *ExecError.
	Exec(ctx context.Context) (int64, error)
}

// Session is one live database connection.
type Session interface {
	Prepare(text string) (Statement, error)
	IsConnected(ctx context.Context) bool
	IsOpen() bool
	Close() error
}

// Factory owns the resources sessions are drawn from.
type Factory interface {
	OpenSession(ctx context.Context) (Session, error)
	Close() error
}

// Opener builds a Factory from the current configuration.
type Opener interface {
	Open(ctx context.Context) (Factory, error)
}

// ExecError is a failed execution tagged with the category the dialect assigned.
type ExecError struct {
	Category database.ErrorCategory
	Code     int
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s error (code %d): %v", e.Category, e.Code, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
