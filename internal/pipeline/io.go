package pipeline

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/compression"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/mmap"
)

// Stdio names standard input or output in place of a path.
const Stdio = "-"

// maxLineSize bounds a single physical line
const maxLineSize = 64 * 1024 * 1024

// OpenSource opens path for reading and decompresses it. An empty alg picks
// the algorithm from the file extension; stdin is read as-is unless alg is set.
// Uncompressed regular files are memory-mapped where the platform allows it.
func OpenSource(path string, alg compression.Algorithm, stdin io.Reader) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if path == Stdio || path == "" {
		raw = io.NopCloser(stdin)
	} else {
		if alg == "" {
			alg = compression.FromPath(path)
		}
		var err error
		if raw, err = openFile(path, alg == compression.None); err != nil {
			return nil, err
		}
	}

	r, err := compression.NewReader(raw, alg)
	if err != nil {
		raw.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open decompressor").
			WithDetail("path", path).
			WithDetail("compression", string(alg))
	}
	return &stackedReadCloser{Reader: r, closers: []io.Closer{r, raw}}, nil
}

func openFile(path string, mapped bool) (io.ReadCloser, error) {
	if mapped {
		m, err := mmap.Open(path)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, mmap.ErrUnsupported) {
			return nil, err
		}
	}
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").
			WithDetail("path", path)
	}
	return f, nil
}

// ReadLines reads every line of r, dropping line terminators. It stops with
// the context error when ctx is cancelled.
func ReadLines(ctx context.Context, r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if len(lines)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input").
			WithDetail("line_number", len(lines)+1)
	}
	return lines, nil
}

// CreateSink creates path for writing through the given compression. Closing
// the sink flushes the compressor and closes the file; stdout is never closed.
func CreateSink(path string, alg compression.Algorithm, level compression.Level, stdout io.Writer) (io.WriteCloser, error) {
	var raw io.Writer
	var closers []io.Closer
	if path == Stdio || path == "" {
		raw = stdout
	} else {
		f, err := os.Create(path) //nolint:gosec // path comes from the command line
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output").
				WithDetail("path", path)
		}
		raw = f
		closers = append(closers, f)
	}

	bw := bufio.NewWriterSize(raw, 256*1024)
	cw, err := compression.NewWriter(bw, alg, level)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to open compressor").
			WithDetail("compression", string(alg))
	}
	closers = append([]io.Closer{cw, flushCloser{bw}}, closers...)
	return &stackedWriteCloser{Writer: cw, closers: closers}, nil
}

// WriteLines writes each line followed by a newline.
func WriteLines(w io.Writer, lines []string) (int64, error) {
	var n int64
	for _, line := range lines {
		m, err := io.WriteString(w, line)
		n += int64(m)
		if err != nil {
			return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to write output")
		}
		m, err = io.WriteString(w, "\n")
		n += int64(m)
		if err != nil {
			return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to write output")
		}
	}
	return n, nil
}

type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	return closeAll(s.closers)
}

type stackedWriteCloser struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriteCloser) Close() error {
	return closeAll(s.closers)
}

type flushCloser struct{ *bufio.Writer }

func (f flushCloser) Close() error { return f.Flush() }

// closeAll closes in order and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrap(err, errors.ErrorTypeFile, "failed to close stream")
		}
	}
	return first
}
