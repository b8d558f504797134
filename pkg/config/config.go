package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/formats"
	"github.com/ajitpratap0/tabula/pkg/logger"
)

// Config is the complete configuration of one read or convert run.
type Config struct {
	// Dialect names the registered input dialect
	Dialect string `yaml:"dialect" json:"dialect"`
	// Reader overrides individual dialect settings; unset fields keep the dialect default
	Reader ReaderConfig `yaml:"reader" json:"reader"`
	// FillValues replaces the dialect's fill rules when set, even to an empty list
	FillValues []FillValueConfig `yaml:"fill_values,omitempty" json:"fill_values,omitempty"`
	// Types forces the storage type of named columns (int, float, string)
	Types map[string]string `yaml:"types,omitempty" json:"types,omitempty"`

	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// ReaderConfig holds optional dialect overrides.
type ReaderConfig struct {
	Delimiter    *string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	QuoteChar    *string `yaml:"quote_char,omitempty" json:"quote_char,omitempty"`
	Comment      *string `yaml:"comment,omitempty" json:"comment,omitempty"`
	WriteComment *string `yaml:"write_comment,omitempty" json:"write_comment,omitempty"`
	HeaderStart  *int    `yaml:"header_start,omitempty" json:"header_start,omitempty"`
	DataStart    *int    `yaml:"data_start,omitempty" json:"data_start,omitempty"`
	DataEnd      *int    `yaml:"data_end,omitempty" json:"data_end,omitempty"`
	AutoFormat   *string `yaml:"auto_format,omitempty" json:"auto_format,omitempty"`
	WriteFill    *string `yaml:"write_fill,omitempty" json:"write_fill,omitempty"`
	PadShortRows *bool   `yaml:"pad_short_rows,omitempty" json:"pad_short_rows,omitempty"`
}

// FillValueConfig is one fill rule
type FillValueConfig struct {
	Match       string   `yaml:"match" json:"match"`
	Replacement string   `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Columns     []string `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// OutputConfig selects where and how the table is written
type OutputConfig struct {
	// Format is an export format (arrow, parquet, avro, jsonl); empty writes text
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	// Dialect is the text output dialect; empty reuses the input dialect
	Dialect string `yaml:"dialect,omitempty" json:"dialect,omitempty"`
	// Compression wraps the output stream (gzip, zstd, snappy, s2, lz4)
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty"`
	// Level is the stream compression level (fastest, default, better, best)
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
	// Codec is the export format's internal compression
	Codec string `yaml:"codec,omitempty" json:"codec,omitempty"`
	// BatchSize is the row count per record batch or Avro block
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// LoggingConfig configures the global logger
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// MetricsConfig configures the Prometheus collector
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	// Path receives the text exposition at the end of a run; empty means stderr
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Dialect: "basic",
		Output: OutputConfig{
			BatchSize: 10000,
		},
		Logging: LoggingConfig{
			Level:    "warn",
			Encoding: "console",
		},
		Metrics: MetricsConfig{
			Namespace: "tabula",
		},
		Tracing: TracingConfig{
			ServiceName: "tabula",
		},
	}
}

// Validate checks the values that can be checked without building a reader.
func (c *Config) Validate() error {
	if c.Dialect == "" {
		return errors.NewConfigError("dialect is required")
	}
	if c.Output.Format != "" {
		if _, err := formats.ParseFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if _, err := compression.ParseAlgorithm(c.Output.Compression); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	if _, err := compression.ParseLevel(c.Output.Level); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression level")
	}
	if c.Output.BatchSize < 0 {
		return errors.NewConfigError("output batch_size cannot be negative")
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid log level")
		}
	}
	if _, err := c.StoreTypes(); err != nil {
		return err
	}
	for i, f := range c.FillValues {
		for _, col := range f.Columns {
			if col == "" {
				return errors.NewConfigError(fmt.Sprintf("fill_values[%d] names an empty column", i))
			}
		}
	}
	return nil
}

// Options converts the reader overrides and fill values to reader options.
func (c *Config) Options() ([]ascii.Option, error) {
	var opts []ascii.Option
	r := c.Reader

	if r.Delimiter != nil {
		d, err := parseRune("delimiter", *r.Delimiter)
		if err != nil {
			return nil, err
		}
		if r.QuoteChar != nil {
			// the pair is checked only in its final state
			opts = append(opts, ascii.WithQuoteChar(ascii.NoQuote))
		}
		opts = append(opts, ascii.WithDelimiter(d))
	}
	if r.QuoteChar != nil {
		q := ascii.NoQuote
		if *r.QuoteChar != "" {
			var err error
			if q, err = parseRune("quote_char", *r.QuoteChar); err != nil {
				return nil, err
			}
		}
		opts = append(opts, ascii.WithQuoteChar(q))
	}
	if r.Comment != nil {
		opts = append(opts, ascii.WithComment(*r.Comment))
	}
	if r.WriteComment != nil {
		opts = append(opts, ascii.WithWriteComment(*r.WriteComment))
	}
	if r.HeaderStart != nil {
		opts = append(opts, ascii.WithHeaderStart(*r.HeaderStart))
	}
	if r.DataStart != nil {
		opts = append(opts, ascii.WithDataStart(*r.DataStart))
	}
	if r.DataEnd != nil {
		opts = append(opts, ascii.WithDataEnd(*r.DataEnd))
	}
	if r.AutoFormat != nil {
		opts = append(opts, ascii.WithAutoFormat(*r.AutoFormat))
	}
	if r.WriteFill != nil {
		opts = append(opts, ascii.WithWriteFill(*r.WriteFill))
	}
	if r.PadShortRows != nil {
		if *r.PadShortRows {
			opts = append(opts, ascii.WithReconcile(ascii.PadShortRows))
		} else {
			opts = append(opts, ascii.WithReconcile(nil))
		}
	}
	if c.FillValues != nil {
		fills := make([]ascii.FillValue, len(c.FillValues))
		for i, f := range c.FillValues {
			fills[i] = ascii.FillValue{Match: f.Match, Replacement: f.Replacement, Columns: f.Columns}
		}
		opts = append(opts, ascii.WithFillValues(fills...))
	}
	return opts, nil
}

// StoreTypes parses the forced column types.
func (c *Config) StoreTypes() (map[string]columnar.ColumnType, error) {
	if len(c.Types) == 0 {
		return nil, nil
	}
	types := make(map[string]columnar.ColumnType, len(c.Types))
	for name, t := range c.Types {
		ct, err := columnar.ParseColumnType(t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid column type").
				WithDetail("column", name)
		}
		types[name] = ct
	}
	return types, nil
}

// LoggerConfig converts the logging section for logger.Init.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       c.Logging.Level,
		Encoding:    c.Logging.Encoding,
		Development: c.Logging.Development,
	}
}

// parseRune accepts a single character or one of the names tab, space,
// comma, pipe and semicolon; escapes like \t are also understood.
func parseRune(field, s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	case "comma":
		return ',', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.NewConfigError(fmt.Sprintf("%s must be a single character, got %q", field, s))
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
