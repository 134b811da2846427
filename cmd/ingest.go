package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lockplane/sqlsink/internal/sink"
	"github.com/lockplane/sqlsink/internal/source"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Write rows from a CSV or NDJSON file into the database",
	Long: `Read rows from a file (or stdin) and write them to the tables described
by the [sink] section of sqlsink.toml.

Rows are handed to the sink in batches of batch_size. Rows that cannot be
written are logged and counted as lost; they do not make the command fail.`,
	Example: `  # Ingest a CSV file into the default environment
  sqlsink ingest rows.csv

  # Ingest NDJSON from stdin into the staging environment
  cat rows.ndjson | sqlsink ingest --format ndjson --env staging

  # Smaller upstream batches, JSON logs
  sqlsink ingest rows.csv --batch-size 100 --log-format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var (
	ingestEnv        string
	ingestFormat     string
	ingestBatchSize  int
	ingestSkipHeader bool
	ingestDelimiter  string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestEnv, "env", "", "Environment from sqlsink.toml (default: default_environment)")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "", "Input format: csv or ndjson (default: from file extension, else csv)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "Rows per sink call (default: [sink] batch_size)")
	ingestCmd.Flags().BoolVar(&ingestSkipHeader, "skip-header", false, "Skip the first CSV record")
	ingestCmd.Flags().StringVar(&ingestDelimiter, "delimiter", ",", "CSV field delimiter")
}

// ingestResult summarises one ingest run.
type ingestResult struct {
	Submitted int
	Persisted int
	Stats     sink.Stats
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := loadTarget(ingestEnv, ingestBatchSize)
	if err != nil {
		return err
	}

	delimiter, size := utf8.DecodeRuneInString(ingestDelimiter)
	if size == 0 || size != len(ingestDelimiter) {
		return fmt.Errorf("--delimiter must be a single character, got %q", ingestDelimiter)
	}

	input := cmd.InOrStdin()
	inputName := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		input = f
		inputName = args[0]
	}

	reader, err := source.NewReader(inputFormat(ingestFormat, inputName), input, source.Options{
		Columns:    t.cfg.Sink.Columns,
		SkipHeader: ingestSkipHeader,
		Comma:      delimiter,
	})
	if err != nil {
		return err
	}

	logger := newLogger(t.cfg).With().
		Str("run_id", ulid.Make().String()).
		Str("env", t.env.Name).
		Logger()

	s, err := sink.New(t.builder, t.opener, sink.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	logger.Info().
		Str("input", inputName).
		Str("driver", t.driver.Name()).
		Int("batch_size", t.cfg.Sink.BatchSize).
		Msg("ingest start")

	result, runErr := ingest(ctx, s, reader, t.cfg.Sink.BatchSize)

	logger.Info().
		Int("submitted", result.Submitted).
		Int("persisted", result.Persisted).
		Int("lost", result.Stats.Lost).
		Msg("ingest end")

	printIngestResult(cmd.OutOrStdout(), result)
	return runErr
}

// ingest streams rows from reader into s. Reading runs ahead of writing by at
// most one batch; the sink itself is only ever called from one goroutine.
func ingest(ctx context.Context, s *sink.Sink, reader source.Reader, batchSize int) (ingestResult, error) {
	var result ingestResult
	batches := make(chan []sink.Row)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(batches)
		return source.Batches(gctx, reader, batchSize, batches)
	})
	g.Go(func() error {
		for batch := range batches {
			n, err := s.ExecuteQuery(gctx, batch)
			result.Submitted += len(batch)
			result.Persisted += n
			if err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	result.Stats = s.Stats()
	return result, err
}

func inputFormat(flag string, inputName string) string {
	if flag != "" {
		return flag
	}
	switch strings.ToLower(filepath.Ext(inputName)) {
	case ".ndjson", ".jsonl":
		return source.FormatNDJSON
	default:
		return source.FormatCSV
	}
}

func printIngestResult(w io.Writer, r ingestResult) {
	_, _ = fmt.Fprintf(w, "Submitted %d rows, persisted %d, lost %d\n", r.Submitted, r.Persisted, r.Stats.Lost)
	_, _ = fmt.Fprintf(w, "  statements: %d (inserts %d, creates %d, updates %d)\n",
		r.Stats.Statements, r.Stats.Inserts, r.Stats.Creates, r.Stats.Updates)
	_, _ = fmt.Fprintf(w, "  splits:     %d (max depth %d)\n", r.Stats.Splits, r.Stats.MaxDepth)
}
