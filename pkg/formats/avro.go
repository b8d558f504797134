package formats

import (
	"fmt"
	"io"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/columnar"
)

// avroWriter implements Writer for Avro object container files
type avroWriter struct {
	config         *WriterConfig
	codec          *goavro.Codec
	ocfWriter      *goavro.OCFWriter
	fieldNames     []string
	avroTypes      []string
	buffer         []interface{}
	recordsWritten int64
	mu             sync.Mutex
}

func newAvroWriter(w io.Writer, config *WriterConfig) (*avroWriter, error) {
	names := AvroFieldNames(config.Schema)
	schemaJSON, err := AvroSchema(config.Schema, config.RecordName)
	if err != nil {
		return nil, err
	}

	codec, err := goavro.NewCodec(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create Avro codec: %w", err)
	}

	compression, err := getAvroCompression(config.Compression)
	if err != nil {
		return nil, err
	}
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: compression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Avro writer: %w", err)
	}

	types := make([]string, len(config.Schema.Fields))
	for i, f := range config.Schema.Fields {
		types[i] = avroType(f.Type)
	}

	return &avroWriter{
		config:     config,
		codec:      codec,
		ocfWriter:  ocfWriter,
		fieldNames: names,
		avroTypes:  types,
		buffer:     make([]interface{}, 0, config.BatchSize),
	}, nil
}

func (aw *avroWriter) WriteStore(store *columnar.ColumnStore) error {
	aw.mu.Lock()
	defer aw.mu.Unlock()

	if err := checkSchema(aw.config.Schema, store); err != nil {
		return err
	}

	rows := store.RowCount()
	for r := 0; r < rows; r++ {
		native := make(map[string]interface{}, len(aw.fieldNames))
		for i, name := range aw.fieldNames {
			v := store.ColumnAt(i).Get(r)
			if v == nil {
				native[name] = nil
				continue
			}
			native[name] = goavro.Union(aw.avroTypes[i], v)
		}
		aw.buffer = append(aw.buffer, native)

		if len(aw.buffer) >= aw.config.BatchSize {
			if err := aw.flushBatch(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (aw *avroWriter) Flush() error {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.flushBatch()
}

// Close flushes remaining rows; OCF blocks are complete once appended.
func (aw *avroWriter) Close() error {
	return aw.Flush()
}

func (aw *avroWriter) Format() Format { return Avro }

func (aw *avroWriter) RecordsWritten() int64 {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.recordsWritten
}

func (aw *avroWriter) flushBatch() error {
	if len(aw.buffer) == 0 {
		return nil
	}
	if err := aw.ocfWriter.Append(aw.buffer); err != nil {
		return fmt.Errorf("failed to write Avro block: %w", err)
	}
	aw.recordsWritten += int64(len(aw.buffer))
	aw.buffer = aw.buffer[:0]
	return nil
}

// AvroSchema renders the record schema for a store schema. Every field is a
// union with null and defaults to null.
func AvroSchema(schema *columnar.Schema, recordName string) (string, error) {
	if recordName == "" {
		recordName = "row"
	}
	names := AvroFieldNames(schema)

	fields := make([]map[string]interface{}, 0, len(schema.Fields))
	for i, field := range schema.Fields {
		avroField := map[string]interface{}{
			"name":    names[i],
			"type":    []interface{}{"null", avroType(field.Type)},
			"default": nil,
		}
		if names[i] != field.Name {
			avroField["doc"] = field.Name
		}
		fields = append(fields, avroField)
	}

	schemaMap := map[string]interface{}{
		"type":   "record",
		"name":   avroName(recordName),
		"fields": fields,
	}

	schemaBytes, err := json.Marshal(schemaMap)
	if err != nil {
		return "", fmt.Errorf("failed to encode Avro schema: %w", err)
	}
	return string(schemaBytes), nil
}

// AvroFieldNames returns valid, unique Avro names for the schema columns.
// Characters outside [A-Za-z0-9_] become underscores; the original name is
// kept in the field doc.
func AvroFieldNames(schema *columnar.Schema) []string {
	names := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names[i] = avroName(f.Name)
	}
	return ascii.UniqueNames(names)
}

func avroName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func avroType(t columnar.ColumnType) string {
	switch t {
	case columnar.ColumnTypeInt:
		return "long"
	case columnar.ColumnTypeFloat:
		return "double"
	default:
		return "string"
	}
}

func getAvroCompression(compression string) (string, error) {
	switch strings.ToLower(compression) {
	case "", "snappy":
		return goavro.CompressionSnappyLabel, nil
	case "deflate", "gzip":
		return goavro.CompressionDeflateLabel, nil
	case "none", "null":
		return goavro.CompressionNullLabel, nil
	default:
		return "", fmt.Errorf("unsupported avro compression: %s", compression)
	}
}
