package ascii

import (
	"bufio"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Reader is one dialect: a Header and a Data region plus the type inferencer
// shared by both.
type Reader struct {
	Name        string
	Description string

	Header   Header
	Data     Data
	Inferrer TypeInferencer

	logger *zap.Logger
}

// Parse turns table lines into typed columns and reconciled rows.
func (r *Reader) Parse(all []string) (*Table, error) {
	log := r.log()

	cols, err := r.Header.Parse(all)
	if err != nil {
		return nil, err
	}

	dataLines := r.Data.Lines(all)
	if r.Header.Kind == HeaderNone {
		n := r.Data.PeekFieldCount(dataLines)
		cols = r.Header.Finalize(n)
		log.Debug("column count taken from first data row", zap.Int("columns", n))
	}

	rows, padded, err := r.Data.Parse(dataLines, len(cols))
	if err != nil {
		return nil, err
	}
	if padded > 0 {
		log.Debug("short rows padded", zap.Int("rows", padded))
	}

	newFillTable(r.Data.FillValues, cols).apply(cols, rows)
	r.Inferrer.Resolve(cols)

	if ce := log.Check(zap.DebugLevel, "table parsed"); ce != nil {
		types := make([]string, len(cols))
		for i, col := range cols {
			types[i] = col.Name + ":" + col.Type.String()
		}
		ce.Write(zap.Int("rows", len(rows)), zap.Strings("columns", types))
	}

	return &Table{Columns: cols, Rows: rows, Padded: padded}, nil
}

// ParseString splits text into lines and parses it.
func (r *Reader) ParseString(text string) (*Table, error) {
	return r.Parse(SplitLines(text))
}

// Write renders a table as lines in this dialect. Unresolved column types are
// inferred first so that typed headers stay consistent with the data.
func (r *Reader) Write(t *Table) ([]string, error) {
	if t == nil {
		return nil, errors.New(errors.ErrorTypeInternal, "nil table")
	}
	nrows := t.NumRows()
	for _, col := range t.Columns {
		if len(col.Values) != nrows {
			return nil, errors.Newf(errors.ErrorTypeInternal,
				"column %q has %d values, table has %d rows", col.Name, len(col.Values), nrows)
		}
	}
	r.Inferrer.Resolve(t.Columns)

	lines := r.Header.Write(t.Columns)
	lines = append(lines, r.Data.Write(t.Columns, nrows)...)
	return lines, nil
}

// WriteString renders a table as newline-terminated text.
func (r *Reader) WriteString(t *Table) (string, error) {
	lines, err := r.Write(t)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func (r *Reader) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger.With(zap.String("dialect", r.Name))
}

// SplitLines splits text on newlines, dropping a trailing carriage return
// from each line and the empty remainder after a final newline.
func SplitLines(text string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines
}
