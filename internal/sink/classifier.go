package sink

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/lockplane/sqlsink/database"
	"github.com/lockplane/sqlsink/internal/session"
)

// Classifier maps execution failures to outcomes. Connection-level failures
// reset the connection as a side effect.
type Classifier struct {
	conn   *ConnectionManager
	logger zerolog.Logger
}

// NewClassifier returns a classifier that resets conn on connection-level failures.
func NewClassifier(conn *ConnectionManager, logger zerolog.Logger) *Classifier {
	return &Classifier{conn: conn, logger: logger}
}

// Classify returns the outcome for err; nil is Success.
func (c *Classifier) Classify(ctx context.Context, err error) Outcome {
	if err == nil {
		return Success
	}

	var execErr *session.ExecError
	if errors.As(err, &execErr) {
		switch execErr.Category {
		case database.CategoryGrammar:
			return SchemaMissing
		case database.CategoryConstraint:
			return ConstraintViolation
		case database.CategoryGeneric:
			// a generic driver error without a vendor code counts as success
			if execErr.Code == 0 {
				return Success
			}
			c.logger.Error().Err(err).Int("code", execErr.Code).Msg("driver error, resetting connection")
			c.reset(ctx)
			return TransientError
		}
	}

	c.logger.Error().Err(err).Msg("execution failed, resetting connection")
	c.reset(ctx)
	return UnknownError
}

func (c *Classifier) reset(ctx context.Context) {
	if err := c.conn.Reset(ctx); err != nil {
		c.logger.Error().Err(err).Msg("connection reset failed")
	}
}
