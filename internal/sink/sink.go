// Package sink persists ordered rows into a relational store. Failed bulk
// inserts are recovered by creating missing tables, bisecting the batch,
// falling back to updates for conflicting rows, and finally recording the
// rows that could not be written.
package sink

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lockplane/sqlsink/internal/session"
)

// Row is one record of string cells in column order.
type Row []string

// SQLBuilder renders table names and statement text from row contents.
// Statements address cells through named parameters of the form :_{row}_{col},
// where row indexes the rows handed to the builder.
type SQLBuilder interface {
	TableName(row Row) string
	InsertStatement(tableName string, rows []Row) string
	CreateTableStatement(sample Row) string
	UpdateStatement(tableName string, row Row) string

	// CheckMandatory fails when required settings are missing.
	CheckMandatory() error
}

// Stats are cumulative counters over the lifetime of a Sink.
type Stats struct {
	Statements int // statements sent to the database
	Inserts    int // bulk insert attempts, retries included
	Creates    int // create-table attempts
	Updates    int // update fallbacks attempted
	Splits     int // batches divided in two
	MaxDepth   int // deepest bisection level reached
	Lost       int // rows dropped after every recovery failed
	Persisted  int // rows counted as written
}

// Sink writes rows through a single session. It is not safe for concurrent use.
type Sink struct {
	builder    SQLBuilder
	conn       *ConnectionManager
	classifier *Classifier
	logger     zerolog.Logger
	stats      Stats
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// New checks the builder's mandatory settings and returns a Sink whose session
// is opened lazily on first use.
func New(builder SQLBuilder, opener session.Opener, opts ...Option) (*Sink, error) {
	if err := builder.CheckMandatory(); err != nil {
		return nil, fmt.Errorf("missing mandatory configuration: %w", err)
	}

	s := &Sink{
		builder: builder,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.conn = NewConnectionManager(opener, s.logger)
	s.classifier = NewClassifier(s.conn, s.logger)
	return s, nil
}

// Connection exposes the connection manager, mainly for lifecycle control.
func (s *Sink) Connection() *ConnectionManager {
	return s.conn
}

// Stats returns a snapshot of the counters.
func (s *Sink) Stats() Stats {
	return s.stats
}

// Close closes the session and its factory.
func (s *Sink) Close() error {
	return s.conn.Close()
}
