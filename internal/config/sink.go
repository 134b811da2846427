package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// DefaultBatchSize is the number of rows handed to the sink per call.
	DefaultBatchSize = 500
	// DefaultColumnType is used for every column of a created table.
	DefaultColumnType = "TEXT"
)

// SinkConfig describes how rows map onto tables.
type SinkConfig struct {
	// Table is a name template; {N} is replaced by cell N of the row.
	Table      string   `toml:"table,omitempty" json:"table,omitempty"`
	Columns    []string `toml:"columns,omitempty" json:"columns,omitempty"`
	KeyColumns []string `toml:"key_columns,omitempty" json:"key_columns,omitempty"`
	ColumnType string   `toml:"column_type,omitempty" json:"column_type,omitempty"`
	BatchSize  int      `toml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// WithDefaults fills unset optional fields.
func (s SinkConfig) WithDefaults() SinkConfig {
	if strings.TrimSpace(s.ColumnType) == "" {
		s.ColumnType = DefaultColumnType
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	return s
}

// CheckMandatory reports every missing or inconsistent setting at once.
func (s SinkConfig) CheckMandatory() error {
	var errs []error

	if strings.TrimSpace(s.Table) == "" {
		errs = append(errs, errors.New("sink.table is required"))
	}
	if len(s.Columns) == 0 {
		errs = append(errs, errors.New("sink.columns is required"))
	}

	seen := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		if strings.TrimSpace(col) == "" {
			errs = append(errs, errors.New("sink.columns contains an empty name"))
			continue
		}
		if seen[col] {
			errs = append(errs, fmt.Errorf("sink.columns lists %q twice", col))
		}
		seen[col] = true
	}

	for _, key := range s.KeyColumns {
		if !slices.Contains(s.Columns, key) {
			errs = append(errs, fmt.Errorf("sink.key_columns: %q is not a column", key))
		}
	}

	if s.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("sink.batch_size must be at least 1, got %d", s.BatchSize))
	}

	return errors.Join(errs...)
}
