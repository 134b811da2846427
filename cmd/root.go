package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lockplane/sqlsink/internal/config"
	"github.com/lockplane/sqlsink/internal/logging"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sqlsink",
	Short: "Write rows into SQL tables, recovering from failed inserts",
	Long: `sqlsink writes rows into PostgreSQL, SQLite or libSQL tables.

Rows are inserted in bulk. When an insert fails, missing tables are created,
batches are split to isolate bad rows, and rows that conflict with an existing
key are updated instead. Rows that still cannot be written are logged.`,
	Version:      getVersion(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn or error (overrides [logging] level)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (overrides [logging] format)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the stderr logger for a command. Flags win over sqlsink.toml.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(os.Stderr, level, format)
}
