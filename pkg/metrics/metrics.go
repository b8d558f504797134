// Package metrics records parse and write activity as Prometheus metrics.
//
// Each Collector owns its registry so tests and repeated CLI runs never
// collide on registration:
//
//	c := metrics.NewCollector("tabula")
//	timer := metrics.NewTimer("parse")
//	table, err := reader.Parse(lines)
//	c.ObserveParse("csv", len(lines), table, timer.Stop())
//	if err != nil {
//	    c.ObserveError("csv", err)
//	}
//	c.WriteText(os.Stderr)
package metrics

import (
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Collector groups the metrics of one process. It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	linesRead     *prometheus.CounterVec   // physical lines handed to a reader
	rowsParsed    *prometheus.CounterVec   // data rows produced
	rowsPadded    *prometheus.CounterVec   // rows extended by the reconcile policy
	rowsWritten   *prometheus.CounterVec   // rows emitted per output format
	errorsTotal   *prometheus.CounterVec   // failures by error type
	parseDuration *prometheus.HistogramVec // seconds per parse
	writeDuration *prometheus.HistogramVec // seconds per write

	startTime time.Time
	mu        sync.RWMutex
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "tabula"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		linesRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Physical lines read by dialect",
		}, []string{"dialect"}),
		rowsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Data rows parsed by dialect",
		}, []string{"dialect"}),
		rowsPadded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_padded_total",
			Help:      "Short rows padded to the column count",
		}, []string{"dialect"}),
		rowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written by output format or dialect",
		}, []string{"output"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failures by dialect and error type",
		}, []string{"dialect", "type"}),
		parseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing a table",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"dialect"}),
		writeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_seconds",
			Help:      "Time spent writing a table",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"output"}),
		startTime: time.Now(),
	}
}

// Registry exposes the collector's registry, for example to serve it over HTTP.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// ObserveParse records one successful or failed parse. table may be nil.
func (c *Collector) ObserveParse(dialect string, lines int, table *ascii.Table, d time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.linesRead.WithLabelValues(dialect).Add(float64(lines))
	c.parseDuration.WithLabelValues(dialect).Observe(d.Seconds())
	if table == nil {
		return
	}
	c.rowsParsed.WithLabelValues(dialect).Add(float64(table.NumRows()))
	if table.Padded > 0 {
		c.rowsPadded.WithLabelValues(dialect).Add(float64(table.Padded))
	}
}

// ObserveWrite records rows written to an output (a format or dialect name).
func (c *Collector) ObserveWrite(output string, rows int64, d time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.rowsWritten.WithLabelValues(output).Add(float64(rows))
	c.writeDuration.WithLabelValues(output).Observe(d.Seconds())
}

// ObserveError counts err under its error type; untyped errors count as internal.
func (c *Collector) ObserveError(dialect string, err error) {
	if err == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.errorsTotal.WithLabelValues(dialect, string(ErrorType(err))).Inc()
}

// ErrorType returns the type of a structured error, or internal.
func ErrorType(err error) errors.ErrorType {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Type
	}
	return errors.ErrorTypeInternal
}

// WriteText writes every metric in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	families, err := c.registry.Gather()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics")
		}
	}
	return nil
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
