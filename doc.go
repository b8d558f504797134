// Package tabula reads and writes tabular data stored as delimited text.
//
// Every supported dialect is one composition of the same parts: a line
// classifier that separates header, data and comment lines, a splitter that
// tokenizes a line, a header strategy that names the columns, and a data
// stage that reconciles row lengths and applies fill values. Types are
// inferred per column after the whole table is read.
//
// # Dialects
//
//	basic             whitespace delimited, first line names the columns
//	no_header         whitespace delimited, columns named col1..colN
//	commented_header  header is the last comment line before the data
//	tab               tab delimited, interior whitespace kept
//	csv               comma delimited, short rows padded, empty fields masked
//	rdb               tab delimited, second header line holds S/N type tags
//
// # Quick Start
//
// Parse a table from memory:
//
//	r, err := ascii.CSV()
//	if err != nil {
//		return err
//	}
//	tbl, err := r.ParseString("name,flux\nvega,12.5\n")
//	if err != nil {
//		return err
//	}
//	for _, c := range tbl.Columns {
//		fmt.Println(c.Name, c.Type)
//	}
//
// Convert a compressed file from the command line:
//
//	tabula convert --dialect rdb catalog.rdb.gz catalog.parquet
//
// # Packages
//
//   - pkg/ascii: the parsing core, free of I/O
//   - pkg/registry: dialect lookup by name
//   - pkg/columnar: typed column storage for parsed tables
//   - pkg/formats: Arrow, Parquet, Avro and JSON lines export
//   - pkg/compression: gzip, zstd, snappy, s2 and lz4 streams
//   - pkg/config: YAML configuration
//   - internal/pipeline: file-level read and convert
//
// Errors carry a type that callers test with the helpers in pkg/errors,
// for example errors.IsRowLengthError.
package tabula
