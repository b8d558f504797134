package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tabula/internal/pipeline"
	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/registry"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// app carries the state shared by all commands of one invocation.
type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	a.v.SetEnvPrefix("TABULA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "tabula",
		Short: "Tabula - read and convert delimited text tables",
		Long: `Tabula parses delimited text tables in several dialects (basic, no_header,
commented_header, tab, csv, rdb), infers column types and writes the table
back as text in any dialect or exports it to Arrow, Parquet, Avro or JSON lines.

Settings come from a YAML file (--config), TABULA_* environment variables and
flags; flags win over the environment, which wins over the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.v.BindPFlags(cmd.Flags())
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "Path to a YAML configuration file")
	pf.StringP("dialect", "d", "", "Input dialect (see 'tabula dialects')")
	pf.String("delimiter", "", "Field delimiter: one character or tab, space, comma, pipe, semicolon")
	pf.String("comment", "", "Comment line pattern (regular expression); empty disables comments")
	pf.String("quote-char", "", "Quote character; empty disables quoting")
	pf.Int("header-start", 0, "Index of the header line among non-comment lines; negative counts from the end")
	pf.Int("data-start", 0, "Index of the first data line among non-comment lines")
	pf.Int("data-end", 0, "Exclusive end index of the data lines; negative counts from the end")
	pf.String("auto-format", "", "Name pattern for headerless columns, e.g. col%d")
	pf.Bool("pad-short-rows", false, "Pad rows shorter than the header instead of failing")
	pf.StringSlice("fill-value", nil, "Mask fields equal to MATCH, optionally storing REPLACEMENT (MATCH[=REPLACEMENT])")
	pf.StringSlice("type", nil, "Force the storage type of a column (NAME=int|float|string)")
	pf.String("input-compression", "", "Input compression; default guesses from the file extension")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-encoding", "", "Log encoding (console, json)")
	pf.Bool("metrics", false, "Print Prometheus metrics when the command finishes")
	pf.String("metrics-path", "", "Write metrics to this file instead of stderr")
	pf.Bool("trace", false, "Export OpenTelemetry spans to stderr")

	root.AddCommand(
		a.versionCmd(),
		a.dialectsCmd(),
		a.readCmd(),
		a.convertCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "Tabula v%s\n", version)
			fmt.Fprintf(a.stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) dialectsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "List available dialects",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := registry.GetRegistry().Infos()
			if asJSON {
				return a.printJSON(infos)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDELIMITER\tHEADER\tCOMMENT\tPADS ROWS\tDESCRIPTION")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
					info.Name, info.Delimiter, info.Header, info.Comment, info.PadsRows, info.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// columnSummary describes one parsed column
type columnSummary struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	RawType string `json:"raw_type,omitempty"`
	Masked  int    `json:"masked"`
}

// tableSummary is printed by the read command
type tableSummary struct {
	Source  string          `json:"source"`
	Dialect string          `json:"dialect"`
	Lines   int             `json:"lines"`
	Rows    int             `json:"rows"`
	Padded  int             `json:"padded"`
	Columns []columnSummary `json:"columns"`
}

func summarize(source, dialect string, lines int, t *ascii.Table) *tableSummary {
	s := &tableSummary{
		Source:  source,
		Dialect: dialect,
		Lines:   lines,
		Rows:    t.NumRows(),
		Padded:  t.Padded,
		Columns: make([]columnSummary, len(t.Columns)),
	}
	for i, col := range t.Columns {
		masked := 0
		for _, m := range col.Mask {
			if m {
				masked++
			}
		}
		s.Columns[i] = columnSummary{Name: col.Name, Type: col.Type.String(), RawType: col.RawType, Masked: masked}
	}
	return s
}

func (a *app) readCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "read [INPUT]",
		Short: "Parse a table and print its columns and types",
		Long: `Parse a table and print its columns and types. INPUT is a file path or '-'
for standard input; .gz, .zst, .sz, .s2 and .lz4 files are decompressed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := argOr(args, 0, pipeline.Stdio)
			return a.withPipeline(cmd.Context(), func(ctx context.Context, p *pipeline.Pipeline) error {
				table, lines, err := p.Read(ctx, input)
				if err != nil {
					return err
				}
				summary := summarize(input, p.Reader().Name, lines, table)
				if asJSON {
					return a.printJSON(summary)
				}
				return a.printSummary(summary)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert INPUT [OUTPUT]",
		Short: "Convert a table to another dialect or an export format",
		Long: `Convert a table to another dialect or an export format.

OUTPUT defaults to standard output. The export format is taken from --format
or from the OUTPUT extension (.parquet, .arrow, .avro, .jsonl); any other
output is text in --output-dialect, or the input dialect when unset. A
compression suffix on OUTPUT (.gz, .zst, .sz, .s2, .lz4) compresses the stream.`,
		Example: `  tabula convert --dialect csv survey.csv survey.parquet
  tabula convert --dialect rdb --output-dialect csv table.rdb.gz -
  cat table.txt | tabula convert - --format jsonl --type id=string`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			output := argOr(args, 1, pipeline.Stdio)
			return a.withPipeline(cmd.Context(), func(ctx context.Context, p *pipeline.Pipeline) error {
				result, err := p.Convert(ctx, input, output)
				if err != nil {
					return err
				}
				logger.Get().Debug("convert finished",
					zap.String("output", result.Output),
					zap.Int64("rows", result.RowsWritten))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.String("output-dialect", "", "Text output dialect")
	f.String("format", "", "Export format (parquet, arrow, avro, jsonl)")
	f.String("compression", "", "Output stream compression (gzip, zstd, snappy, s2, lz4)")
	f.String("level", "", "Output compression level (fastest, default, better, best)")
	f.String("codec", "", "Export format codec (parquet: snappy, gzip, zstd, brotli, none; avro: snappy, deflate, none)")
	f.Int("batch-size", 0, "Rows per record batch or Avro block")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	var write string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resolveConfig()
			if err != nil {
				return err
			}
			if write != "" {
				return config.Save(write, cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode configuration")
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "Save the configuration to this file instead of printing it")
	return cmd
}

// withPipeline resolves the configuration, sets up logging, tracing and
// metrics, runs fn and tears everything down again.
func (a *app) withPipeline(ctx context.Context, fn func(context.Context, *pipeline.Pipeline) error) error {
	cfg, err := a.resolveConfig()
	if err != nil {
		return err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.OutputPaths = []string{"stderr"}
	if err := logger.Init(logCfg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	defer func() { _ = logger.Sync() }()

	if err := observability.Initialize(ctx, observability.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Writer:         a.stderr,
	}); err != nil {
		return err
	}
	defer func() {
		if err := observability.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	opts := []pipeline.Option{
		pipeline.WithLogger(logger.Get()),
		pipeline.WithStdio(a.stdin, a.stdout),
	}
	if s := a.v.GetString("input-compression"); s != "" {
		alg, err := compression.ParseAlgorithm(s)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid input compression")
		}
		opts = append(opts, pipeline.WithInputCompression(alg))
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		opts = append(opts, pipeline.WithMetrics(collector))
	}

	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		return err
	}

	runErr := fn(ctx, p)
	if collector != nil {
		if err := a.writeMetrics(collector, cfg.Metrics.Path); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func (a *app) writeMetrics(c *metrics.Collector, path string) error {
	if path == "" {
		return c.WriteText(a.stderr)
	}
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create metrics file").WithDetail("path", path)
	}
	if err := c.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// resolveConfig loads the config file and applies environment variables and
// flags that were set explicitly.
func (a *app) resolveConfig() (*config.Config, error) {
	v := a.v
	cfg := config.DefaultConfig()
	if path := v.GetString("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setStringPtr := func(key string, dst **string) {
		if v.IsSet(key) {
			s := v.GetString(key)
			*dst = &s
		}
	}
	setIntPtr := func(key string, dst **int) {
		if v.IsSet(key) {
			n := v.GetInt(key)
			*dst = &n
		}
	}

	setString("dialect", &cfg.Dialect)
	setStringPtr("delimiter", &cfg.Reader.Delimiter)
	setStringPtr("comment", &cfg.Reader.Comment)
	setStringPtr("quote-char", &cfg.Reader.QuoteChar)
	setStringPtr("auto-format", &cfg.Reader.AutoFormat)
	setIntPtr("header-start", &cfg.Reader.HeaderStart)
	setIntPtr("data-start", &cfg.Reader.DataStart)
	setIntPtr("data-end", &cfg.Reader.DataEnd)
	if v.IsSet("pad-short-rows") {
		pad := v.GetBool("pad-short-rows")
		cfg.Reader.PadShortRows = &pad
	}

	if v.IsSet("fill-value") {
		cfg.FillValues = parseFillValues(v.GetStringSlice("fill-value"))
	}
	if v.IsSet("type") {
		types, err := parseTypes(v.GetStringSlice("type"))
		if err != nil {
			return nil, err
		}
		if cfg.Types == nil {
			cfg.Types = map[string]string{}
		}
		for name, t := range types {
			cfg.Types[name] = t
		}
	}

	setString("output-dialect", &cfg.Output.Dialect)
	setString("format", &cfg.Output.Format)
	setString("compression", &cfg.Output.Compression)
	setString("level", &cfg.Output.Level)
	setString("codec", &cfg.Output.Codec)
	if v.IsSet("batch-size") {
		cfg.Output.BatchSize = v.GetInt("batch-size")
	}

	setString("log-level", &cfg.Logging.Level)
	setString("log-encoding", &cfg.Logging.Encoding)
	if v.IsSet("metrics") {
		cfg.Metrics.Enabled = v.GetBool("metrics")
	}
	setString("metrics-path", &cfg.Metrics.Path)
	if v.IsSet("trace") {
		cfg.Tracing.Enabled = v.GetBool("trace")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseFillValues reads MATCH or MATCH=REPLACEMENT items.
func parseFillValues(items []string) []config.FillValueConfig {
	fills := make([]config.FillValueConfig, 0, len(items))
	for _, item := range items {
		match, replacement, _ := strings.Cut(item, "=")
		fills = append(fills, config.FillValueConfig{Match: match, Replacement: replacement})
	}
	return fills
}

// parseTypes reads NAME=TYPE items; an item may hold several pairs
// separated by commas, as environment variables do.
func parseTypes(items []string) (map[string]string, error) {
	types := make(map[string]string)
	for _, item := range items {
		for _, pair := range strings.Split(item, ",") {
			if pair == "" {
				continue
			}
			name, t, ok := strings.Cut(pair, "=")
			if !ok || name == "" {
				return nil, errors.NewConfigError(fmt.Sprintf("type override %q must be NAME=TYPE", pair))
			}
			types[name] = t
		}
	}
	return types, nil
}

func (a *app) printSummary(s *tableSummary) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "source\t%s\n", s.Source)
	fmt.Fprintf(tw, "dialect\t%s\n", s.Dialect)
	fmt.Fprintf(tw, "rows\t%d\n", s.Rows)
	if s.Padded > 0 {
		fmt.Fprintf(tw, "padded\t%d\n", s.Padded)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tMASKED")
	for i, col := range s.Columns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i, col.Name, col.Type, col.Masked)
	}
	return tw.Flush()
}

func (a *app) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode JSON")
	}
	data = append(data, '\n')
	_, err = a.stdout.Write(data)
	return err
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
