// Package source reads rows for the sink from CSV or newline-delimited JSON
// input and cuts them into batches.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lockplane/sqlsink/internal/sink"
)

const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// Reader yields rows until it returns io.EOF.
type Reader interface {
	Next() (sink.Row, error)
}

// Options tune how input is decoded.
type Options struct {
	// Columns names the row cells; NDJSON objects are mapped through it.
	Columns []string
	// SkipHeader drops the first CSV record.
	SkipHeader bool
	// Comma is the CSV field delimiter; zero means ','.
	Comma rune
}

// NewReader returns a Reader for the named format.
func NewReader(format string, r io.Reader, opts Options) (Reader, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return NewCSVReader(r, opts), nil
	case FormatNDJSON, "jsonl":
		return NewNDJSONReader(r, opts), nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// Batches reads r to the end and sends rows to out in slices of at most size.
// It returns nil at end of input and ctx.Err() when cancelled. out is not closed.
func Batches(ctx context.Context, r Reader, size int, out chan<- []sink.Row) error {
	if size < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", size)
	}

	batch := make([]sink.Row, 0, size)
	send := func() error {
		select {
		case out <- batch:
			batch = make([]sink.Row, 0, size)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		batch = append(batch, row)
		if len(batch) == size {
			if err := send(); err != nil {
				return err
			}
		}
	}

	if len(batch) > 0 {
		return send()
	}
	return nil
}
