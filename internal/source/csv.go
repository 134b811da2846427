package source

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lockplane/sqlsink/internal/sink"
)

// CSVReader reads one row per CSV record. Records may have differing lengths.
type CSVReader struct {
	r          *csv.Reader
	skipHeader bool
	line       int
}

func NewCSVReader(r io.Reader, opts Options) *CSVReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	return &CSVReader{r: cr, skipHeader: opts.SkipHeader}
}

func (c *CSVReader) Next() (sink.Row, error) {
	for {
		record, err := c.r.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		c.line++

		if c.skipHeader && c.line == 1 {
			continue
		}
		return sink.Row(record), nil
	}
}
