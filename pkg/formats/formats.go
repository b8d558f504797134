// Package formats exports typed column stores to binary and line formats.
package formats

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Format represents an export format
type Format string

const (
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Avro is the Apache Avro object container format
	Avro Format = "avro"
	// JSONL writes one JSON object per row
	JSONL Format = "jsonl"
)

// Formats lists every export format
func Formats() []Format {
	return []Format{Arrow, Parquet, Avro, JSONL}
}

// Writer exports stores in one format
type Writer interface {
	// WriteStore appends every row of store; its schema must match the writer's
	WriteStore(store *columnar.ColumnStore) error
	// Flush flushes any buffered rows
	Flush() error
	// Close flushes and finalizes the output; it does not close the destination
	Close() error
	// Format returns the export format
	Format() Format
	// RecordsWritten returns rows written so far
	RecordsWritten() int64
}

// WriterConfig configures export writers
type WriterConfig struct {
	Format Format
	Schema *columnar.Schema
	// Compression is the format's internal codec: none, snappy, gzip, zstd
	Compression string
	BatchSize   int
	// RecordName names the Avro record
	RecordName string
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Format:      Parquet,
		Compression: "snappy",
		BatchSize:   10000,
		RecordName:  "row",
	}
}

// NewWriter creates a writer for config.Format. The schema is required.
func NewWriter(w io.Writer, config *WriterConfig) (Writer, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if config.Schema == nil {
		return nil, errors.NewConfigError(fmt.Sprintf("schema is required for %s writer", config.Format))
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultWriterConfig().BatchSize
	}

	switch config.Format {
	case Parquet:
		return newParquetWriter(w, config)
	case Arrow:
		return newArrowWriter(w, config)
	case Avro:
		return newAvroWriter(w, config)
	case JSONL:
		return newJSONLWriter(w, config), nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported export format: %s", config.Format))
	}
}

// ParseFormat maps a name to a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case "ndjson", "json":
		return JSONL, nil
	case "feather", "ipc":
		return Arrow, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewConfigError(fmt.Sprintf("unsupported export format: %s", s))
}

// FromPath picks the format from a file extension; ok is false when the
// extension is not an export format.
func FromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return Parquet, true
	case ".arrow", ".feather", ".ipc":
		return Arrow, true
	case ".avro":
		return Avro, true
	case ".jsonl", ".ndjson":
		return JSONL, true
	default:
		return "", false
	}
}

// FormatInfo provides information about export formats
type FormatInfo struct {
	Format           Format
	Name             string
	Description      string
	FileExtension    string
	MIMEType         string
	SupportsCompress bool
}

// GetFormatInfo returns information about an export format
func GetFormatInfo(format Format) *FormatInfo {
	switch format {
	case Parquet:
		return &FormatInfo{
			Format:           Parquet,
			Name:             "Apache Parquet",
			Description:      "Columnar storage format optimized for analytics",
			FileExtension:    ".parquet",
			MIMEType:         "application/x-parquet",
			SupportsCompress: true,
		}
	case Arrow:
		return &FormatInfo{
			Format:        Arrow,
			Name:          "Apache Arrow",
			Description:   "In-memory columnar format, IPC file layout",
			FileExtension: ".arrow",
			MIMEType:      "application/vnd.apache.arrow.file",
		}
	case Avro:
		return &FormatInfo{
			Format:           Avro,
			Name:             "Apache Avro",
			Description:      "Row-oriented object container files",
			FileExtension:    ".avro",
			MIMEType:         "application/avro",
			SupportsCompress: true,
		}
	case JSONL:
		return &FormatInfo{
			Format:        JSONL,
			Name:          "JSON Lines",
			Description:   "One JSON object per row, nulls for missing values",
			FileExtension: ".jsonl",
			MIMEType:      "application/x-ndjson",
		}
	default:
		return nil
	}
}

// checkSchema verifies that store has the writer's columns in order.
func checkSchema(want *columnar.Schema, store *columnar.ColumnStore) error {
	got := store.Schema()
	if len(got.Fields) != len(want.Fields) {
		return errors.Newf(errors.ErrorTypeConfig,
			"store has %d columns, writer expects %d", len(got.Fields), len(want.Fields))
	}
	for i, f := range want.Fields {
		if got.Fields[i].Name != f.Name || got.Fields[i].Type != f.Type {
			return errors.Newf(errors.ErrorTypeConfig,
				"column %d is %s %s, writer expects %s %s",
				i, got.Fields[i].Name, got.Fields[i].Type, f.Name, f.Type)
		}
	}
	return nil
}

// writeOnly hides Close from writers that would otherwise close the destination.
type writeOnly struct {
	io.Writer
}
