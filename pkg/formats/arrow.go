package formats

import (
	"fmt"
	"io"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/tabula/pkg/columnar"
)

// ArrowSchema converts a store schema to an Arrow schema. Every field is
// nullable since fill values may mask any column.
func ArrowSchema(schema *columnar.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Fields))
	for i, f := range schema.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t columnar.ColumnType) arrow.DataType {
	switch t {
	case columnar.ColumnTypeInt:
		return arrow.PrimitiveTypes.Int64
	case columnar.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// recordBatcher accumulates store rows into Arrow record batches.
type recordBatcher struct {
	schema       *columnar.Schema
	arrowSchema  *arrow.Schema
	builder      *array.RecordBuilder
	batchSize    int
	currentBatch int
	emit         func(arrow.Record) error
}

func newRecordBatcher(config *WriterConfig, pool memory.Allocator, emit func(arrow.Record) error) *recordBatcher {
	as := ArrowSchema(config.Schema)
	return &recordBatcher{
		schema:      config.Schema,
		arrowSchema: as,
		builder:     array.NewRecordBuilder(pool, as),
		batchSize:   config.BatchSize,
		emit:        emit,
	}
}

// add appends every row of store and returns the number of rows added.
func (rb *recordBatcher) add(store *columnar.ColumnStore) (int64, error) {
	if err := checkSchema(rb.schema, store); err != nil {
		return 0, err
	}

	rows := store.RowCount()
	cols := make([]columnar.Column, store.ColumnCount())
	for i := range cols {
		cols[i] = store.ColumnAt(i)
	}

	for r := 0; r < rows; r++ {
		for i, col := range cols {
			appendArrowValue(rb.builder.Field(i), col, r)
		}
		rb.currentBatch++
		if rb.currentBatch >= rb.batchSize {
			if err := rb.flush(); err != nil {
				return int64(r + 1), err
			}
		}
	}
	return int64(rows), nil
}

func (rb *recordBatcher) flush() error {
	if rb.currentBatch == 0 {
		return nil
	}
	record := rb.builder.NewRecord()
	defer record.Release()
	rb.currentBatch = 0
	return rb.emit(record)
}

func (rb *recordBatcher) release() {
	rb.builder.Release()
}

func appendArrowValue(b array.Builder, col columnar.Column, row int) {
	if col.IsNull(row) {
		b.AppendNull()
		return
	}
	switch c := col.(type) {
	case *columnar.IntColumn:
		b.(*array.Int64Builder).Append(c.Value(row))
	case *columnar.FloatColumn:
		b.(*array.Float64Builder).Append(c.Value(row))
	case *columnar.StringColumn:
		b.(*array.StringBuilder).Append(c.Value(row))
	default:
		b.AppendNull()
	}
}

// arrowWriter implements Writer for the Arrow IPC file format
type arrowWriter struct {
	fileWriter     *ipc.FileWriter
	batcher        *recordBatcher
	recordsWritten int64
	mu             sync.Mutex
}

func newArrowWriter(w io.Writer, config *WriterConfig) (*arrowWriter, error) {
	pool := memory.NewGoAllocator()
	aw := &arrowWriter{}

	aw.batcher = newRecordBatcher(config, pool, func(rec arrow.Record) error {
		if err := aw.fileWriter.Write(rec); err != nil {
			return fmt.Errorf("failed to write record batch: %w", err)
		}
		return nil
	})

	fw, err := ipc.NewFileWriter(writeOnly{w}, ipc.WithSchema(aw.batcher.arrowSchema), ipc.WithAllocator(pool))
	if err != nil {
		aw.batcher.release()
		return nil, fmt.Errorf("failed to create Arrow writer: %w", err)
	}
	aw.fileWriter = fw
	return aw, nil
}

func (aw *arrowWriter) WriteStore(store *columnar.ColumnStore) error {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	n, err := aw.batcher.add(store)
	aw.recordsWritten += n
	return err
}

func (aw *arrowWriter) Flush() error {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.batcher.flush()
}

func (aw *arrowWriter) Close() error {
	if err := aw.Flush(); err != nil {
		return err
	}

	aw.mu.Lock()
	defer aw.mu.Unlock()
	defer aw.batcher.release()

	if err := aw.fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Arrow writer: %w", err)
	}
	return nil
}

func (aw *arrowWriter) Format() Format { return Arrow }

func (aw *arrowWriter) RecordsWritten() int64 {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.recordsWritten
}
