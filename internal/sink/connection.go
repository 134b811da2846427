package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lockplane/sqlsink/internal/session"
)

// ConnectionManager owns the session factory and the one live session.
type ConnectionManager struct {
	opener  session.Opener
	factory session.Factory
	session session.Session
	logger  zerolog.Logger
}

// NewConnectionManager returns a manager with nothing open yet.
func NewConnectionManager(opener session.Opener, logger zerolog.Logger) *ConnectionManager {
	return &ConnectionManager{opener: opener, logger: logger}
}

// Establish opens a fresh factory and session. Anything still open is closed first.
func (m *ConnectionManager) Establish(ctx context.Context) error {
	if m.factory != nil || m.session != nil {
		if err := m.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to close previous session")
		}
	}

	m.logger.Info().Msg("opening session")

	factory, err := m.opener.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session factory: %w", err)
	}

	sess, err := factory.OpenSession(ctx)
	if err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to open session: %w", err)
	}

	m.factory = factory
	m.session = sess
	return nil
}

// Close closes the session and the factory that owns it.
func (m *ConnectionManager) Close() error {
	if m.factory == nil && m.session == nil {
		return nil
	}

	m.logger.Info().Msg("closing session")

	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Close())
	}
	if m.factory != nil {
		errs = append(errs, m.factory.Close())
	}
	m.session = nil
	m.factory = nil

	return errors.Join(errs...)
}

// Reset toggles the connection: an open session is closed without reopening,
// a closed one is re-established. Callers check IsConnected before relying on
// the session.
func (m *ConnectionManager) Reset(ctx context.Context) error {
	m.logger.Info().Bool("open", m.IsOpen()).Msg("resetting connection")
	if m.IsOpen() {
		return m.Close()
	}
	return m.Establish(ctx)
}

// IsConnected reports whether the session exists and answers a ping.
func (m *ConnectionManager) IsConnected(ctx context.Context) bool {
	return m.session != nil && m.session.IsConnected(ctx)
}

// IsOpen reports whether the session exists and has not been closed.
func (m *ConnectionManager) IsOpen() bool {
	return m.session != nil && m.session.IsOpen()
}

// Session returns the live session, or nil.
func (m *ConnectionManager) Session() session.Session {
	return m.session
}
