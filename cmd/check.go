package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockplane/sqlsink/internal/session"
	"github.com/lockplane/sqlsink/internal/sink"
	"github.com/lockplane/sqlsink/internal/sqlvalidation"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate sqlsink.toml and preview the generated SQL",
	Long: `Load and validate sqlsink.toml, resolve the environment, and print the
insert, create and update statements generated for a sample row.

For PostgreSQL targets the statements are parsed with the PostgreSQL parser,
so template or column mistakes show up before any row is written.`,
	Example: `  # Check the default environment
  sqlsink check

  # Also connect to the staging database
  sqlsink check --env staging --connect`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var (
	checkEnv     string
	checkConnect bool
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkEnv, "env", "", "Environment from sqlsink.toml (default: default_environment)")
	checkCmd.Flags().BoolVar(&checkConnect, "connect", false, "Open a connection and ping the database")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	t, err := loadTarget(checkEnv, 0)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Config: %s\n", t.cfg.ConfigFilePath)
	_, _ = fmt.Fprintf(out, "✓ Environment: %s (%s)\n", t.env.Name, t.driver.Name())
	if t.env.FromDotenv {
		_, _ = fmt.Fprintf(out, "  connection from %s\n", t.env.DotenvPath)
	}

	stmts := sampleStatements(t)
	for _, stmt := range stmts {
		_, _ = fmt.Fprintf(out, "\n-- %s\n", stmt.Kind)
		if stmt.SQL == "" {
			_, _ = fmt.Fprintln(out, "(none)")
			continue
		}
		_, _ = fmt.Fprintln(out, stmt.SQL)
	}

	if t.driver.Name() == "postgres" {
		result := sqlvalidation.ValidateStatements(stmts)
		_, _ = fmt.Fprintln(out)
		for _, issue := range result.Issues {
			_, _ = fmt.Fprintf(out, "  %s\n", issue)
		}
		if !result.Valid {
			return errors.New("generated SQL failed validation")
		}
		_, _ = fmt.Fprintln(out, "✓ Generated SQL parses")
	}

	if checkConnect {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		factory, err := t.opener.Open(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to environment %q: %w", t.env.Name, err)
		}
		_ = factory.Close()
		_, _ = fmt.Fprintln(out, "✓ Connected")
	}

	return nil
}

// sampleStatements renders the statements for a row whose cells are the column
// names, with placeholders in the dialect's positional form.
func sampleStatements(t *target) []sqlvalidation.Statement {
	sample := make(sink.Row, len(t.cfg.Sink.Columns))
	copy(sample, t.cfg.Sink.Columns)

	table := t.builder.TableName(sample)
	positional := func(text string) string {
		return session.Positional(text, t.driver.ParameterPlaceholder)
	}

	return []sqlvalidation.Statement{
		{Kind: sqlvalidation.KindInsert, Table: table, SQL: positional(t.builder.InsertStatement(table, []sink.Row{sample}))},
		{Kind: sqlvalidation.KindCreate, Table: table, SQL: t.builder.CreateTableStatement(sample)},
		{Kind: sqlvalidation.KindUpdate, Table: table, SQL: positional(t.builder.UpdateStatement(table, sample))},
	}
}
