// Package columnar stores a parsed text table as typed columns.
//
// # Overview
//
// A ColumnStore holds one Column per table column, in header order. Each
// column carries its values in native form plus a validity mask, so a
// value masked by a fill rule becomes a null rather than a sentinel:
//
//   - IntColumn: int64 values with a running min/max
//   - FloatColumn: float64 values
//   - StringColumn: strings, dictionary encoded once values repeat
//
// # Loading
//
// FromTable converts an ascii.Table using the types resolved by the reader.
// Callers may force a column to another type; a value that does not fit
// is reported as a conversion error naming the column, the value and the
// target type:
//
//	tbl, _ := rdr.ParseString(text)
//	store, err := columnar.FromTable(tbl, map[string]columnar.ColumnType{
//		"id": columnar.ColumnTypeString,
//	})
//
// Forcing Integer on a column holding "1.5" fails; forcing String never does.
//
// # Access
//
// GetColumn and ColumnAt return the typed columns for exporters, GetRow
// returns one row keyed by name, and NewBatchIterator walks the rows in
// fixed-size batches in schema order.
package columnar
