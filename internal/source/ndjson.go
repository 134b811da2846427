package source

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/lockplane/sqlsink/internal/sink"
)

// NDJSONReader reads one row per JSON value. Arrays are taken cell by cell;
// objects are mapped through the configured columns, missing keys rendering
// empty. Scalars are rendered as text and null as the empty string.
type NDJSONReader struct {
	dec     *json.Decoder
	columns []string
	record  int
}

func NewNDJSONReader(r io.Reader, opts Options) *NDJSONReader {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &NDJSONReader{dec: dec, columns: opts.Columns}
}

func (n *NDJSONReader) Next() (sink.Row, error) {
	var raw json.RawMessage
	if err := n.dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode record %d: %w", n.record+1, err)
	}
	n.record++

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("record %d is empty", n.record)
	}

	switch trimmed[0] {
	case '[':
		var cells []any
		if err := n.unmarshal(trimmed, &cells); err != nil {
			return nil, err
		}
		row := make(sink.Row, len(cells))
		for i, v := range cells {
			row[i] = cellText(v)
		}
		return row, nil
	case '{':
		if len(n.columns) == 0 {
			return nil, fmt.Errorf("record %d is an object but no columns are configured", n.record)
		}
		var fields map[string]any
		if err := n.unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		row := make(sink.Row, len(n.columns))
		for i, col := range n.columns {
			row[i] = cellText(fields[col])
		}
		return row, nil
	default:
		return nil, fmt.Errorf("record %d must be a JSON array or object", n.record)
	}
}

func (n *NDJSONReader) unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode record %d: %w", n.record, err)
	}
	return nil
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		// nested arrays and objects are stored as their JSON text
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
