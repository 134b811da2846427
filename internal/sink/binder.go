package sink

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lockplane/sqlsink/internal/session"
)

// parseParameterKey splits a key of the form _{row}_{col}.
func parseParameterKey(name string) (int, int, error) {
	parts := strings.Split(strings.TrimPrefix(name, "_"), "_")
	if !strings.HasPrefix(name, "_") || len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed parameter key %q", name)
	}

	row, err := strconv.Atoi(parts[0])
	if err != nil || row < 0 {
		return 0, 0, fmt.Errorf("malformed row index in parameter key %q", name)
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil || col < 0 {
		return 0, 0, fmt.Errorf("malformed column index in parameter key %q", name)
	}
	return row, col, nil
}

// bindRows fills every named parameter of stmt from rows. Keys that do not parse
// or point outside rows are logged and left unbound.
func (s *Sink) bindRows(stmt session.Statement, rows []Row) {
	for _, name := range stmt.ParameterNames() {
		row, col, err := parseParameterKey(name)
		if err != nil {
			s.logger.Error().Err(err).Msg("skipping parameter")
			continue
		}
		if row >= len(rows) || col >= len(rows[row]) {
			s.logger.Error().Str("param", name).Msg("parameter out of range, skipping")
			continue
		}
		if err := stmt.SetString(name, rows[row][col]); err != nil {
			s.logger.Error().Err(err).Str("param", name).Msg("failed to bind parameter")
		}
	}
}
