package formats

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/tabula/pkg/columnar"
)

// parquetWriter implements Writer for Parquet format
type parquetWriter struct {
	fileWriter     *pqarrow.FileWriter
	batcher        *recordBatcher
	recordsWritten int64
	mu             sync.Mutex
}

func newParquetWriter(w io.Writer, config *WriterConfig) (*parquetWriter, error) {
	codec, err := getParquetCompression(config.Compression)
	if err != nil {
		return nil, err
	}

	pool := memory.NewGoAllocator()
	pw := &parquetWriter{}
	pw.batcher = newRecordBatcher(config, pool, func(rec arrow.Record) error {
		if err := pw.fileWriter.Write(rec); err != nil {
			return fmt.Errorf("failed to write row group: %w", err)
		}
		return nil
	})

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(true),
		parquet.WithStats(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool))

	fw, err := pqarrow.NewFileWriter(pw.batcher.arrowSchema, writeOnly{w}, props, arrowProps)
	if err != nil {
		pw.batcher.release()
		return nil, fmt.Errorf("failed to create Parquet writer: %w", err)
	}
	pw.fileWriter = fw
	return pw, nil
}

func (pw *parquetWriter) WriteStore(store *columnar.ColumnStore) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	n, err := pw.batcher.add(store)
	pw.recordsWritten += n
	return err
}

func (pw *parquetWriter) Flush() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.batcher.flush()
}

func (pw *parquetWriter) Close() error {
	if err := pw.Flush(); err != nil {
		return err
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()
	defer pw.batcher.release()

	if err := pw.fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	return nil
}

func (pw *parquetWriter) Format() Format { return Parquet }

func (pw *parquetWriter) RecordsWritten() int64 {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.recordsWritten
}

func getParquetCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression: %s", name)
	}
}
