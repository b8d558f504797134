// Package pipeline runs Tabula end to end: it opens a (possibly compressed)
// line source, parses it with the configured dialect and writes the table
// either as text in a dialect or to an export format.
//
//	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
//	result, err := p.Convert(ctx, "survey.csv.gz", "survey.parquet")
//
// Logging, metrics and tracing wrap the pure parsing core; none of them
// changes what is parsed.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/formats"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/registry"
)

// Pipeline holds a configured input reader and the collaborators around it.
// It may be reused for several inputs.
type Pipeline struct {
	cfg      *config.Config
	reader   *ascii.Reader
	types    map[string]columnar.ColumnType
	registry *registry.Registry

	inputCompression compression.Algorithm

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *observability.DialectTracer

	stdin  io.Reader
	stdout io.Writer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger; the default is the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records activity on c
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithRegistry looks dialects up in r instead of the global registry
func WithRegistry(r *registry.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithInputCompression forces the input decompressor instead of guessing it
// from the file extension.
func WithInputCompression(alg compression.Algorithm) Option {
	return func(p *Pipeline) { p.inputCompression = alg }
}

// WithStdio replaces standard input and output, used for the "-" path
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(p *Pipeline) {
		p.stdin = in
		p.stdout = out
	}
}

// Result summarizes one run
type Result struct {
	Input       string
	Output      string
	Dialect     string
	Format      formats.Format // empty for text output
	OutDialect  string         // set for text output
	LinesRead   int
	Table       *ascii.Table
	RowsWritten int64
	Duration    time.Duration
}

// New validates cfg and builds the input reader.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		registry: registry.GetRegistry(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	p.logger = p.logger.With(zap.String("component", "pipeline"))

	readerOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	readerOpts = append(readerOpts, ascii.WithLogger(p.logger))
	p.reader, err = p.registry.Create(cfg.Dialect, readerOpts...)
	if err != nil {
		return nil, err
	}

	p.types, err = cfg.StoreTypes()
	if err != nil {
		return nil, err
	}
	p.tracer = observability.NewDialectTracer(p.reader.Name)
	return p, nil
}

// Reader returns the input reader
func (p *Pipeline) Reader() *ascii.Reader {
	return p.reader
}

// Read parses input, a path or "-", and returns the table and the number of
// physical lines read.
func (p *Pipeline) Read(ctx context.Context, input string) (*ascii.Table, int, error) {
	ctx = logger.WithDialect(logger.WithSource(ctx, input), p.reader.Name)
	log := logger.FromContext(ctx, p.logger)

	var (
		table *ascii.Table
		lines []string
	)
	err := p.tracer.Trace(ctx, "read", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("tabula.source", input)

		src, err := OpenSource(input, p.inputCompression, p.stdin)
		if err != nil {
			return err
		}
		defer src.Close()

		if lines, err = ReadLines(ctx, src); err != nil {
			return err
		}
		span.SetAttribute("tabula.lines", len(lines))

		timer := metrics.NewTimer("parse")
		table, err = p.reader.Parse(lines)
		p.observeParse(len(lines), table, timer.Stop())
		if err != nil {
			return err
		}
		span.SetAttribute("tabula.rows", table.NumRows())
		span.SetAttribute("tabula.columns", table.Names())
		return nil
	})
	if err != nil {
		p.observeError(err)
		log.Debug("read failed", zap.Error(err))
		return nil, len(lines), err
	}

	log.Info("table read",
		zap.Int("lines", len(lines)),
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", len(table.Columns)),
		zap.Int("padded", table.Padded))
	return table, len(lines), nil
}

// Convert reads input and writes it to output. The output is an export
// format when one is configured or implied by the output extension
// (ignoring a compression suffix); otherwise it is text in the output
// dialect.
func (p *Pipeline) Convert(ctx context.Context, input, output string) (*Result, error) {
	start := time.Now()
	table, n, err := p.Read(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Input:     input,
		Output:    output,
		Dialect:   p.reader.Name,
		LinesRead: n,
		Table:     table,
	}

	alg, level, err := p.outputCompression(output)
	if err != nil {
		return nil, err
	}
	format, isExport, err := p.outputFormat(output)
	if err != nil {
		return nil, err
	}

	sink, err := CreateSink(output, alg, level, p.stdout)
	if err != nil {
		p.observeError(err)
		return nil, err
	}

	if isExport {
		result.Format = format
		result.RowsWritten, err = p.Export(ctx, table, format, sink)
	} else {
		result.OutDialect = p.outputDialect()
		result.RowsWritten, err = p.WriteText(ctx, table, result.OutDialect, sink)
	}
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		p.observeError(err)
		return nil, err
	}

	result.Duration = time.Since(start)
	p.logger.Info("conversion complete",
		zap.String("input", input),
		zap.String("output", output),
		zap.String("format", string(result.Format)),
		zap.String("out_dialect", result.OutDialect),
		zap.Int64("rows", result.RowsWritten),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Export writes table to w in an export format.
func (p *Pipeline) Export(ctx context.Context, table *ascii.Table, format formats.Format, w io.Writer) (int64, error) {
	var written int64
	err := p.tracer.Trace(ctx, "export", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("tabula.format", string(format))
		if err := ctx.Err(); err != nil {
			return err
		}

		store, err := columnar.FromTable(table, p.types)
		if err != nil {
			return err
		}

		timer := metrics.NewTimer("export")
		fw, err := formats.NewWriter(w, &formats.WriterConfig{
			Format:      format,
			Schema:      store.Schema(),
			Compression: p.cfg.Output.Codec,
			BatchSize:   p.batchSize(),
			RecordName:  "row",
		})
		if err != nil {
			return err
		}
		if err := fw.WriteStore(store); err != nil {
			_ = fw.Close()
			return err
		}
		if err := fw.Close(); err != nil {
			return err
		}
		written = fw.RecordsWritten()
		p.observeWrite(string(format), written, timer.Stop())
		span.SetAttribute("tabula.rows_written", written)

		p.logger.Debug("table exported",
			zap.String("format", string(format)),
			zap.Int64("rows", written),
			zap.Int64("store_bytes", store.MemoryUsage()))
		return nil
	})
	return written, err
}

// WriteText renders table as lines in the named dialect. An empty dialect
// or the input dialect reuses the input reader with its overrides.
func (p *Pipeline) WriteText(ctx context.Context, table *ascii.Table, dialect string, w io.Writer) (int64, error) {
	writer := p.reader
	if dialect != "" && dialect != p.reader.Name {
		var err error
		writer, err = p.registry.Create(dialect, ascii.WithLogger(p.logger))
		if err != nil {
			return 0, err
		}
	}

	var written int64
	err := observability.NewDialectTracer(writer.Name).Trace(ctx, "write", func(ctx context.Context, span *observability.Span) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		timer := metrics.NewTimer("write")
		lines, err := writer.Write(table)
		if err != nil {
			return err
		}
		if _, err := WriteLines(w, lines); err != nil {
			return err
		}
		written = int64(table.NumRows())
		p.observeWrite(writer.Name, written, timer.Stop())
		span.SetAttribute("tabula.lines_written", len(lines))
		return nil
	})
	return written, err
}

func (p *Pipeline) outputDialect() string {
	if p.cfg.Output.Dialect != "" {
		return p.cfg.Output.Dialect
	}
	return p.reader.Name
}

func (p *Pipeline) outputFormat(output string) (formats.Format, bool, error) {
	if p.cfg.Output.Format != "" {
		f, err := formats.ParseFormat(p.cfg.Output.Format)
		return f, err == nil, err
	}
	if p.cfg.Output.Dialect != "" || output == Stdio || output == "" {
		return "", false, nil
	}
	f, ok := formats.FromPath(compression.TrimExtension(output))
	return f, ok, nil
}

func (p *Pipeline) outputCompression(output string) (compression.Algorithm, compression.Level, error) {
	level, err := compression.ParseLevel(p.cfg.Output.Level)
	if err != nil {
		return "", level, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression level")
	}
	if p.cfg.Output.Compression != "" {
		alg, err := compression.ParseAlgorithm(p.cfg.Output.Compression)
		if err != nil {
			return "", level, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
		}
		return alg, level, nil
	}
	if output == Stdio || output == "" {
		return compression.None, level, nil
	}
	return compression.FromPath(output), level, nil
}

func (p *Pipeline) batchSize() int {
	if p.cfg.Output.BatchSize > 0 {
		return p.cfg.Output.BatchSize
	}
	return formats.DefaultWriterConfig().BatchSize
}

func (p *Pipeline) observeParse(lines int, table *ascii.Table, d time.Duration) {
	if p.metrics != nil {
		p.metrics.ObserveParse(p.reader.Name, lines, table, d)
	}
}

func (p *Pipeline) observeWrite(output string, rows int64, d time.Duration) {
	if p.metrics != nil {
		p.metrics.ObserveWrite(output, rows, d)
	}
}

func (p *Pipeline) observeError(err error) {
	if p.metrics != nil {
		p.metrics.ObserveError(p.reader.Name, err)
	}
}
