package session

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lockplane/sqlsink/database"
)

// SQLOpener opens database/sql pools for a dialect and connection string.
type SQLOpener struct {
	Driver database.Driver
	DSN    string
}

// Open a connection pool to the database, and run a ping to test it
func (o SQLOpener) Open(ctx context.Context) (Factory, error) {
	db, err := sql.Open(o.Driver.SQLDriverName(), o.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	// one statement in flight at a time
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLFactory{db: db, driver: o.Driver}, nil
}

// SQLFactory hands out sessions pinned to a single pooled connection.
type SQLFactory struct {
	db     *sql.DB
	driver database.Driver
}

// NewSQLFactory wraps an already opened pool.
func NewSQLFactory(db *sql.DB, driver database.Driver) *SQLFactory {
	return &SQLFactory{db: db, driver: driver}
}

func (f *SQLFactory) OpenSession(ctx context.Context) (Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &SQLSession{conn: conn, driver: f.driver}, nil
}

func (f *SQLFactory) Close() error {
	return f.db.Close()
}

// SQLSession is a Session over one *sql.Conn. Statements are never cached.
type SQLSession struct {
	conn   *sql.Conn
	driver database.Driver
	closed bool
}

func (s *SQLSession) Prepare(text string) (Statement, error) {
	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	return &sqlStatement{
		session: s,
		parsed:  parseNamed(text),
		values:  make(map[string]string),
	}, nil
}

func (s *SQLSession) IsConnected(ctx context.Context) bool {
	if s.closed {
		return false
	}
	return s.conn.PingContext(ctx) == nil
}

func (s *SQLSession) IsOpen() bool {
	return !s.closed
}

func (s *SQLSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

type sqlStatement struct {
	session *SQLSession
	parsed  parsedStatement
	values  map[string]string
}

func (st *sqlStatement) Text() string {
	return st.parsed.text
}

func (st *sqlStatement) ParameterNames() []string {
	return slices.Clone(st.parsed.names)
}

func (st *sqlStatement) SetString(name string, value string) error {
	if !slices.Contains(st.parsed.names, name) {
		return fmt.Errorf("unknown parameter %q", name)
	}
	st.values[name] = value
	return nil
}

// Exec runs the statement. Empty statements succeed without touching the database.
func (st *sqlStatement) Exec(ctx context.Context) (int64, error) {
	if strings.TrimSpace(st.parsed.text) == "" {
		return 0, nil
	}
	if st.session.closed {
		return 0, &ExecError{Category: database.CategoryOther, Err: fmt.Errorf("session is closed")}
	}

	query, args := st.parsed.render(st.session.driver.ParameterPlaceholder, st.values)
	result, err := st.session.conn.ExecContext(ctx, query, args...)
	if err != nil {
		category, code := st.session.driver.Categorize(err)
		return 0, &ExecError{Category: category, Code: code, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// not every driver reports it; the statement itself succeeded
		return 0, nil
	}
	return affected, nil
}

// Ensure the database/sql types implement the interfaces
var (
	_ Opener  = SQLOpener{}
	_ Factory = (*SQLFactory)(nil)
	_ Session = (*SQLSession)(nil)
)
