package sink

import (
	"context"
	"fmt"
)

// group is a contiguous run of rows sharing a table name.
type group struct {
	table string
	rows  []Row
}

// groupRows splits rows into runs of adjacent rows with the same table name.
// Rows for one table that are not adjacent land in separate groups.
func groupRows(builder SQLBuilder, rows []Row) []group {
	var groups []group
	for _, row := range rows {
		table := builder.TableName(row)
		if n := len(groups); n > 0 && groups[n-1].table == table {
			groups[n-1].rows = append(groups[n-1].rows, row)
			continue
		}
		groups = append(groups, group{table: table, rows: []Row{row}})
	}
	return groups
}

// ExecuteQuery persists rows and returns how many were written. Rows that
// cannot be written are logged and left out of the count; the error is set
// only when the session cannot be established or ctx is cancelled.
func (s *Sink) ExecuteQuery(ctx context.Context, rows []Row) (int, error) {
	if !s.conn.IsConnected(ctx) {
		if err := s.conn.Reset(ctx); err != nil {
			return 0, fmt.Errorf("failed to reset connection: %w", err)
		}
	}

	finished := 0
	for _, g := range groupRows(s.builder, rows) {
		if err := ctx.Err(); err != nil {
			return finished, err
		}

		n, err := s.executeBatch(ctx, g.table, g.rows)
		finished += n
		s.stats.Persisted += n
		if err != nil {
			return finished, err
		}
	}

	s.logger.Info().
		Int("submitted", len(rows)).
		Int("persisted", finished).
		Int("statements", s.stats.Statements).
		Int("lost", s.stats.Lost).
		Msg("query finished")

	return finished, nil
}
