package formats

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/tabula/pkg/columnar"
)

// jsonlWriter writes one JSON object per row with keys in column order.
// Nulls are written as null; NaN and infinities as strings.
type jsonlWriter struct {
	config         *WriterConfig
	out            *bufio.Writer
	keys           [][]byte
	recordsWritten int64
	mu             sync.Mutex
}

func newJSONLWriter(w io.Writer, config *WriterConfig) *jsonlWriter {
	keys := make([][]byte, len(config.Schema.Fields))
	for i, f := range config.Schema.Fields {
		// strings always marshal
		keys[i], _ = json.Marshal(f.Name)
	}
	return &jsonlWriter{
		config: config,
		out:    bufio.NewWriterSize(w, 64*1024),
		keys:   keys,
	}
}

func (jw *jsonlWriter) WriteStore(store *columnar.ColumnStore) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := checkSchema(jw.config.Schema, store); err != nil {
		return err
	}

	rows := store.RowCount()
	var buf []byte
	for r := 0; r < rows; r++ {
		buf = append(buf[:0], '{')
		for i, key := range jw.keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, key...)
			buf = append(buf, ':')
			var err error
			buf, err = appendJSONValue(buf, store.ColumnAt(i), r)
			if err != nil {
				return err
			}
		}
		buf = append(buf, '}', '\n')
		if _, err := jw.out.Write(buf); err != nil {
			return err
		}
		jw.recordsWritten++
	}
	return nil
}

func appendJSONValue(buf []byte, col columnar.Column, row int) ([]byte, error) {
	if col.IsNull(row) {
		return append(buf, "null"...), nil
	}
	switch c := col.(type) {
	case *columnar.IntColumn:
		return strconv.AppendInt(buf, c.Value(row), 10), nil
	case *columnar.FloatColumn:
		f := c.Value(row)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.AppendQuote(buf, strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return strconv.AppendFloat(buf, f, 'g', -1, 64), nil
	default:
		b, err := json.Marshal(col.Get(row))
		if err != nil {
			return buf, err
		}
		return append(buf, b...), nil
	}
}

func (jw *jsonlWriter) Flush() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.out.Flush()
}

func (jw *jsonlWriter) Close() error {
	return jw.Flush()
}

func (jw *jsonlWriter) Format() Format { return JSONL }

func (jw *jsonlWriter) RecordsWritten() int64 {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.recordsWritten
}
