package ascii

import (
	"regexp"
	"strings"
	"unicode"
)

// NoQuote disables quote handling in a Splitter
const NoQuote rune = 0

// Splitter tokenizes one line into fields and joins fields back into a line.
type Splitter struct {
	// Delimiter separates fields
	Delimiter rune
	// QuoteChar opens and closes a quoted field; NoQuote disables quoting.
	// Inside a quoted field a doubled QuoteChar stands for one literal quote.
	QuoteChar rune
	// StripLine trims whitespace from the whole line before splitting
	StripLine bool
	// StripValue trims whitespace from every produced field
	StripValue bool
	// SkipInitialSpace drops spaces that directly follow a delimiter
	SkipInitialSpace bool
}

// DefaultSplitter returns the whitespace-delimited splitter used by the basic dialect
func DefaultSplitter() Splitter {
	return Splitter{
		Delimiter:        ' ',
		QuoteChar:        '"',
		StripLine:        true,
		StripValue:       true,
		SkipInitialSpace: true,
	}
}

// Split breaks a line into fields. An empty line yields a single empty field;
// callers that ignore blank lines must filter them first.
func (s Splitter) Split(line string) []string {
	if s.StripLine {
		line = strings.TrimSpace(line)
	}

	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		started  bool // field has content or an opening quote
		skipping bool // inside the run of spaces after a delimiter
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if inQuotes {
			if c == s.QuoteChar {
				if i+1 < len(runes) && runes[i+1] == s.QuoteChar {
					field.WriteRune(c)
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteRune(c)
			continue
		}

		if skipping {
			if c == ' ' {
				continue
			}
			skipping = false
		}

		switch {
		case c == s.Delimiter:
			fields = append(fields, s.value(field.String()))
			field.Reset()
			started = false
			skipping = s.SkipInitialSpace
		case s.QuoteChar != NoQuote && c == s.QuoteChar && !started:
			inQuotes = true
			started = true
		default:
			field.WriteRune(c)
			started = true
		}
	}

	return append(fields, s.value(field.String()))
}

func (s Splitter) value(v string) string {
	if s.StripValue {
		return strings.TrimSpace(v)
	}
	return v
}

// Join renders fields as one line, quoting any field that would otherwise
// not survive a round trip through Split.
func (s Splitter) Join(fields []string) string {
	return s.join(fields, false)
}

// JoinVisible is Join for lines that are read back through a classifier with
// the given comment pattern. When the plain line would be blank or look like
// a comment, the first field is quoted so the line is kept on re-read.
// Without a quote character the plain line is returned.
func (s Splitter) JoinVisible(fields []string, comment *regexp.Regexp) string {
	line := s.join(fields, false)
	if s.QuoteChar == NoQuote || len(fields) == 0 {
		return line
	}
	if _, ok := (LineClassifier{Comment: comment}).classify(line); ok {
		return line
	}
	return s.join(fields, true)
}

func (s Splitter) join(fields []string, quoteFirst bool) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteRune(s.Delimiter)
		}
		if (i == 0 && quoteFirst) || s.needsQuote(f) {
			q := string(s.QuoteChar)
			b.WriteString(q)
			b.WriteString(strings.ReplaceAll(f, q, q+q))
			b.WriteString(q)
			continue
		}
		b.WriteString(f)
	}
	return b.String()
}

func (s Splitter) needsQuote(f string) bool {
	if s.QuoteChar == NoQuote {
		return false
	}
	if f == "" {
		// An empty field between space delimiters would collapse away.
		return unicode.IsSpace(s.Delimiter) && s.SkipInitialSpace
	}
	return strings.ContainsRune(f, s.Delimiter) || strings.ContainsRune(f, s.QuoteChar) ||
		strings.ContainsAny(f, "\r\n")
}
