package sink

import (
	"context"
	"strings"
)

// frame is a pending sub-batch on the bisection stack.
type frame struct {
	rows  []Row
	depth int
}

// executeBatch writes rows to tableName and returns how many were persisted.
// Sub-batches are processed depth-first, first half before second half. The
// error is non-nil only when ctx is done.
func (s *Sink) executeBatch(ctx context.Context, tableName string, rows []Row) (int, error) {
	finished := 0
	stack := []frame{{rows: rows}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return finished, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		batch := f.rows
		if len(batch) == 0 {
			continue
		}
		if f.depth > s.stats.MaxDepth {
			s.stats.MaxDepth = f.depth
		}

		s.logger.Info().Str("table", tableName).Int("rows", len(batch)).Msg("writing batch")

		insert := s.builder.InsertStatement(tableName, batch)
		s.stats.Inserts++
		outcome := s.run(ctx, insert, batch)

		if outcome == SchemaMissing {
			s.logger.Warn().Str("table", tableName).Msg("creating table")
			s.stats.Creates++
			if s.run(ctx, s.builder.CreateTableStatement(batch[0]), nil) == Success {
				s.stats.Inserts++
				if s.run(ctx, insert, batch) == Success {
					finished += len(batch)
					continue
				}
			}
		}

		if outcome == Success {
			finished += len(batch)
			continue
		}

		if len(batch) > 1 {
			half := len(batch) / 2
			s.stats.Splits++
			s.logger.Info().
				Str("table", tableName).
				Int("first", half).
				Int("second", len(batch)-half).
				Msg("dividing batch into two halves")
			// pushed in reverse so the first half is taken next
			stack = append(stack,
				frame{rows: batch[half:], depth: f.depth + 1},
				frame{rows: batch[:half], depth: f.depth + 1},
			)
			continue
		}

		if outcome == ConstraintViolation {
			s.logger.Warn().Str("table", tableName).Str("row", joinRow(batch[0])).Msg("updating existing row")
			s.stats.Updates++
			if s.run(ctx, s.builder.UpdateStatement(tableName, batch[0]), batch) == Success {
				finished++
				continue
			}
		}

		s.stats.Lost++
		s.logger.Error().
			Str("table", tableName).
			Str("row", joinRow(batch[0])).
			Stringer("outcome", outcome).
			Msg("data loss")
	}

	return finished, nil
}

// run prepares, binds and executes one statement and classifies the result.
// Empty statements succeed without reaching the database. Execution itself is
// not interrupted by ctx; cancellation is observed between statements.
func (s *Sink) run(ctx context.Context, text string, rows []Row) Outcome {
	if len(text) == 0 {
		return Success
	}

	sess := s.conn.Session()
	if sess == nil || !sess.IsOpen() {
		// a reset after an earlier failure leaves the session closed
		if err := s.conn.Establish(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to re-establish session")
			return UnknownError
		}
		sess = s.conn.Session()
	}

	stmt, err := sess.Prepare(text)
	if err != nil {
		return s.classifier.Classify(ctx, err)
	}
	s.bindRows(stmt, rows)

	s.logger.Debug().Msg("query start")
	s.stats.Statements++
	_, err = stmt.Exec(context.WithoutCancel(ctx))
	s.logger.Debug().Msg("query end")

	return s.classifier.Classify(ctx, err)
}

func joinRow(row Row) string {
	return strings.Join(row, ",")
}
