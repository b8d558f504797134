package ascii

import (
	"regexp"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// ReconcileFunc adjusts a row whose width differs from the column count. It
// returns the fixed row and true, or false when the row cannot be reconciled.
type ReconcileFunc func(fields []string, ncols int) ([]string, bool)

// PadShortRows extends rows that are too short with empty fields. Rows that
// are too long are left to fail.
func PadShortRows(fields []string, ncols int) ([]string, bool) {
	if len(fields) > ncols {
		return fields, false
	}
	for len(fields) < ncols {
		fields = append(fields, "")
	}
	return fields, true
}

// Data reads and writes the data region of a table.
type Data struct {
	Splitter Splitter
	// Comment is the comment prefix pattern for the data region
	Comment *regexp.Regexp
	// WriteComment prefixes comment lines on output
	WriteComment string
	// Start is the index of the first data line among the classified lines
	Start int
	// End is the exclusive end index; nil reads to the last line
	End *int
	// FillValues turns placeholders into masked values on read
	FillValues []FillValue
	// WriteFill is written in place of masked values
	WriteFill string
	// Reconcile fixes rows of the wrong width; nil makes every mismatch fatal
	Reconcile ReconcileFunc
}

// Lines returns the classified data lines.
func (d *Data) Lines(all []string) []Line {
	lc := LineClassifier{Comment: d.Comment, Mode: DropComments}
	return Select(lc.Lines(all), d.Start, d.End)
}

// PeekFieldCount returns the width of the first data line, or 0 when there
// are no data lines.
func (d *Data) PeekFieldCount(lines []Line) int {
	if len(lines) == 0 {
		return 0
	}
	return len(d.Splitter.Split(lines[0].Text))
}

// Parse splits every data line and checks it against ncols.
func (d *Data) Parse(lines []Line, ncols int) ([]Row, int, error) {
	rows := make([]Row, 0, len(lines))
	padded := 0
	for _, line := range lines {
		fields := d.Splitter.Split(line.Text)
		if len(fields) != ncols {
			if d.Reconcile == nil {
				return nil, padded, errors.NewRowLengthError(line.Number, ncols, len(fields), line.Text)
			}
			fixed, ok := d.Reconcile(fields, ncols)
			if !ok || len(fixed) != ncols {
				return nil, padded, errors.NewRowLengthError(line.Number, ncols, len(fields), line.Text)
			}
			fields = fixed
			padded++
		}
		rows = append(rows, Row(fields))
	}
	return rows, padded, nil
}

// Write renders one line per row, writing WriteFill for masked values.
// Comment lines are never written by the data region, and no row is
// written so that it would read back as a blank or comment line.
func (d *Data) Write(cols []*Column, nrows int) []string {
	lines := make([]string, 0, nrows)
	fields := make([]string, len(cols))
	for r := 0; r < nrows; r++ {
		for i, col := range cols {
			if col.IsMasked(r) {
				fields[i] = d.WriteFill
				continue
			}
			if r < len(col.Values) {
				fields[i] = col.Values[r]
			} else {
				fields[i] = d.WriteFill
			}
		}
		lines = append(lines, d.Splitter.JoinVisible(fields, d.Comment))
	}
	return lines
}
