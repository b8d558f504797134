package ascii

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// HeaderKind selects how column names are found
type HeaderKind int

const (
	// HeaderFirstLine takes names from the first classified header line
	HeaderFirstLine HeaderKind = iota
	// HeaderNone synthesizes names from the width of the first data row
	HeaderNone
	// HeaderCommentLine takes names from a comment line, prefix stripped
	HeaderCommentLine
	// HeaderTwoLineTyped reads a name line followed by a type tag line
	HeaderTwoLineTyped
)

func (k HeaderKind) String() string {
	switch k {
	case HeaderFirstLine:
		return "first_line"
	case HeaderNone:
		return "no_header"
	case HeaderCommentLine:
		return "comment_line"
	case HeaderTwoLineTyped:
		return "two_line_typed"
	default:
		return "HeaderKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DefaultAutoFormat names synthesized columns col1, col2, ...
const DefaultAutoFormat = "col%d"

// DefaultWriteComment prefixes comment lines on output
const DefaultWriteComment = "# "

// rdbTagPattern is the grammar of an rdb type tag: optional width then N or S.
var rdbTagPattern = regexp.MustCompile(`(?i)^\d*(N|S)$`)

// Header finds the column names (and declared types) of a table.
type Header struct {
	Kind     HeaderKind
	Splitter Splitter
	// Comment is the comment prefix pattern for the header region
	Comment *regexp.Regexp
	// WriteComment prefixes the header line on output for HeaderCommentLine
	WriteComment string
	// Start is the index of the header line among the classified lines;
	// negative counts from the end.
	Start int
	// AutoFormat is the fmt pattern for HeaderNone names
	AutoFormat string
	// TagPattern validates declared type tags of HeaderTwoLineTyped headers
	TagPattern *regexp.Regexp
}

// classifier returns the line classifier for the header region.
func (h *Header) classifier() LineClassifier {
	mode := DropComments
	if h.Kind == HeaderCommentLine {
		mode = OnlyComments
	}
	return LineClassifier{Comment: h.Comment, Mode: mode}
}

// Parse reads column descriptors from the table lines. For HeaderNone it
// returns no columns; the caller must call Finalize with the data width.
func (h *Header) Parse(all []string) ([]*Column, error) {
	switch h.Kind {
	case HeaderNone:
		return nil, nil
	case HeaderTwoLineTyped:
		return h.parseTyped(all)
	}

	end := h.Start + 1
	var lines []Line
	if h.Start < 0 {
		lines = Select(h.classifier().Lines(all), h.Start, nil)
		if len(lines) > 0 {
			lines = lines[:1]
		}
	} else {
		lines = Select(h.classifier().Lines(all), h.Start, &end)
	}
	if len(lines) == 0 {
		return nil, errors.NewFormatError(
			fmt.Sprintf("no header line found at index %d", h.Start), "")
	}

	return columnsFromNames(h.Splitter.Split(lines[0].Text)), nil
}

func (h *Header) parseTyped(all []string) ([]*Column, error) {
	end := h.Start + 2
	lines := Select(h.classifier().Lines(all), h.Start, &end)
	if len(lines) != 2 {
		return nil, errors.NewFormatError("rdb header requires 2 lines", "")
	}

	names := h.Splitter.Split(lines[0].Text)
	tags := h.Splitter.Split(lines[1].Text)
	if len(names) != len(tags) {
		return nil, errors.NewFormatError(
			"rdb header mismatch between number of column names and column types",
			lines[1].Text).
			WithDetail("names", len(names)).
			WithDetail("types", len(tags))
	}

	pattern := h.TagPattern
	if pattern == nil {
		pattern = rdbTagPattern
	}
	for _, tag := range tags {
		if !pattern.MatchString(tag) {
			return nil, errors.NewFormatError(
				fmt.Sprintf("rdb type definitions do not all match [num](N|S): %v", tags),
				lines[1].Text).
				WithDetail("tag", tag)
		}
	}

	cols := columnsFromNames(names)
	for i, col := range cols {
		col.RawType = tags[i]
	}
	return cols, nil
}

// Finalize synthesizes n column names for a HeaderNone table.
func (h *Header) Finalize(n int) []*Column {
	format := h.AutoFormat
	if format == "" {
		format = DefaultAutoFormat
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf(format, i+1)
	}
	return columnsFromNames(names)
}

// Write renders the header lines for cols.
func (h *Header) Write(cols []*Column) []string {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}

	switch h.Kind {
	case HeaderNone:
		return nil
	case HeaderCommentLine:
		return []string{h.WriteComment + h.Splitter.Join(names)}
	case HeaderTwoLineTyped:
		tags := make([]string, len(cols))
		for i, col := range cols {
			tags[i] = tagFor(col.Type)
		}
		return []string{h.Splitter.JoinVisible(names, h.Comment), h.Splitter.Join(tags)}
	default:
		return []string{h.Splitter.JoinVisible(names, h.Comment)}
	}
}

// tagFor derives the rdb tag from a resolved type.
func tagFor(t SemanticType) string {
	if t == TypeString {
		return "S"
	}
	return "N"
}

// columnsFromNames builds positioned columns, renaming duplicates.
func columnsFromNames(names []string) []*Column {
	unique := UniqueNames(names)
	cols := make([]*Column, len(unique))
	for i, name := range unique {
		cols[i] = NewColumn(name, i)
	}
	return cols
}

// UniqueNames returns names with empty entries replaced by their auto name
// and duplicates suffixed _1, _2, ... in order of appearance, skipping any
// suffix already taken.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for _, n := range names {
		used[n] = true
	}

	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			n = fmt.Sprintf(DefaultAutoFormat, i+1)
		}
		if !seen[n] {
			seen[n] = true
			used[n] = true
			out[i] = n
			continue
		}
		for k := 1; ; k++ {
			candidate := n + "_" + strconv.Itoa(k)
			if !used[candidate] {
				used[candidate] = true
				seen[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}
