package ascii

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// DefaultComment is the comment pattern shared by the built-in dialects
const DefaultComment = `\s*#`

// Option adjusts a dialect at construction time.
type Option func(*Reader) error

// Basic reads a table with a single header line followed by data lines.
// Lines starting with # (after optional whitespace) are comments and blank
// lines are ignored.
//
//	# Column definition is the first uncommented line
//	apples oranges pears
//
//	1 2 3
//	4 5 6
func Basic(opts ...Option) (*Reader, error) {
	return build(newBasic(), opts)
}

func newBasic() *Reader {
	comment := regexp.MustCompile("^(?:" + DefaultComment + ")")
	return &Reader{
		Name:        "basic",
		Description: "Basic table with custom delimiters",
		Header: Header{
			Kind:         HeaderFirstLine,
			Splitter:     DefaultSplitter(),
			Comment:      comment,
			WriteComment: DefaultWriteComment,
			Start:        0,
			AutoFormat:   DefaultAutoFormat,
		},
		Data: Data{
			Splitter:     DefaultSplitter(),
			Comment:      comment,
			WriteComment: DefaultWriteComment,
			Start:        1,
			FillValues:   DefaultFillValues(),
		},
	}
}

// NoHeader reads a basic table without a header line. Columns are named
// col1..colN from the width of the first data row.
func NoHeader(opts ...Option) (*Reader, error) {
	r := newBasic()
	r.Name = "no_header"
	r.Description = "Basic table with no headers"
	r.Header.Kind = HeaderNone
	r.Data.Start = 0
	return build(r, opts)
}

// CommentedHeader reads a table whose column names sit in a comment line.
// The header start may be negative, e.g. -1 for the last comment line.
//
//	# col1 col2 col3
//	# Comment line
//	1 2 3
func CommentedHeader(opts ...Option) (*Reader, error) {
	r := newBasic()
	r.Name = "commented_header"
	r.Description = "Column names in a commented line"
	r.Header.Kind = HeaderCommentLine
	r.Data.Start = 0
	return build(r, opts)
}

// Tab reads a tab-separated table. Whitespace is significant: neither lines
// nor data values are stripped.
func Tab(opts ...Option) (*Reader, error) {
	r := newTab()
	return build(r, opts)
}

func newTab() *Reader {
	r := newBasic()
	r.Name = "tab"
	r.Description = "Basic table with tab-separated values"
	r.Header.Splitter.Delimiter = '\t'
	r.Header.Splitter.StripLine = false
	r.Header.Splitter.SkipInitialSpace = false
	r.Data.Splitter = Splitter{
		Delimiter: '\t',
		QuoteChar: '"',
	}
	return r
}

// CSV reads comma-separated values. Rows shorter than the header are padded
// with empty fields, and empty fields are missing values both ways.
//
//	num,ra,dec,radius,mag
//	1,32.23222,10.1211
//	2,38.12321,-88.1321,2.2,17.0
func CSV(opts ...Option) (*Reader, error) {
	r := newBasic()
	r.Name = "csv"
	r.Description = "Comma-separated-values"
	r.Header.Splitter.Delimiter = ','
	r.Data.Splitter.Delimiter = ','
	r.Header.Comment = nil
	r.Data.Comment = nil
	r.Data.Reconcile = PadShortRows
	r.Data.WriteFill = ""
	return build(r, opts)
}

// RDB reads a tab-separated table with a type definition line after the
// column names. Tags are an optional width followed by N (numeric) or S
// (string).
//
//	col1 <tab> col2
//	N <tab> S
//	1 <tab> x
func RDB(opts ...Option) (*Reader, error) {
	r := newTab()
	r.Name = "rdb"
	r.Description = "Tab-separated with a type definition header line"
	r.Header.Kind = HeaderTwoLineTyped
	r.Header.TagPattern = rdbTagPattern
	r.Data.Start = 2
	r.Inferrer.Tags = RDBTagTypes()
	return build(r, opts)
}

func build(r *Reader, opts []Option) (*Reader, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WithDelimiter sets the field delimiter of both regions. It must differ from
// the current quote character; disable quoting first to delimit on a quote.
func WithDelimiter(d rune) Option {
	return func(r *Reader) error {
		if d == 0 || d == '\n' || d == '\r' {
			return errors.NewConfigError(fmt.Sprintf("invalid delimiter %q", d))
		}
		for _, q := range []rune{r.Header.Splitter.QuoteChar, r.Data.Splitter.QuoteChar} {
			if q != NoQuote && q == d {
				return errors.NewConfigError("delimiter must differ from the quote character")
			}
		}
		r.Header.Splitter.Delimiter = d
		r.Data.Splitter.Delimiter = d
		return nil
	}
}

// WithQuoteChar sets the quote character of both regions; NoQuote disables quoting.
func WithQuoteChar(q rune) Option {
	return func(r *Reader) error {
		if q != NoQuote && (q == r.Data.Splitter.Delimiter || q == r.Header.Splitter.Delimiter) {
			return errors.NewConfigError("quote character must differ from the delimiter")
		}
		r.Header.Splitter.QuoteChar = q
		r.Data.Splitter.QuoteChar = q
		return nil
	}
}

// WithComment sets the comment pattern of both regions. An empty pattern
// disables comments. A malformed pattern is a configuration error.
func WithComment(pattern string) Option {
	return func(r *Reader) error {
		re, err := CompileComment(pattern)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid comment pattern").
				WithDetail("pattern", pattern)
		}
		r.Header.Comment = re
		r.Data.Comment = re
		return nil
	}
}

// WithWriteComment sets the prefix written before comment lines.
func WithWriteComment(prefix string) Option {
	return func(r *Reader) error {
		r.Header.WriteComment = prefix
		r.Data.WriteComment = prefix
		return nil
	}
}

// WithHeaderStart sets the classified line index of the header.
func WithHeaderStart(start int) Option {
	return func(r *Reader) error {
		if r.Header.Kind == HeaderNone {
			return errors.NewConfigError("dialect " + r.Name + " has no header line")
		}
		if start < 0 && r.Header.Kind != HeaderCommentLine {
			return errors.NewConfigError("negative header start is only valid for commented headers")
		}
		r.Header.Start = start
		return nil
	}
}

// WithDataStart sets the classified line index of the first data line.
func WithDataStart(start int) Option {
	return func(r *Reader) error {
		r.Data.Start = start
		return nil
	}
}

// WithDataEnd sets the exclusive end index of the data lines.
func WithDataEnd(end int) Option {
	return func(r *Reader) error {
		r.Data.End = &end
		return nil
	}
}

// WithFillValues replaces the fill value rules.
func WithFillValues(fills ...FillValue) Option {
	return func(r *Reader) error {
		r.Data.FillValues = append([]FillValue(nil), fills...)
		return nil
	}
}

// WithWriteFill sets the text written for masked values.
func WithWriteFill(fill string) Option {
	return func(r *Reader) error {
		r.Data.WriteFill = fill
		return nil
	}
}

// WithAutoFormat sets the naming pattern for synthesized column names.
func WithAutoFormat(format string) Option {
	return func(r *Reader) error {
		if strings.Count(format, "%d") != 1 {
			return errors.NewConfigError(fmt.Sprintf("auto format %q needs exactly one %%d verb", format))
		}
		r.Header.AutoFormat = format
		return nil
	}
}

// WithReconcile sets the row width reconciliation policy; nil makes every
// mismatch an error.
func WithReconcile(fn ReconcileFunc) Option {
	return func(r *Reader) error {
		r.Data.Reconcile = fn
		return nil
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) error {
		r.logger = logger
		return nil
	}
}
