package ascii

import (
	"iter"
	"regexp"
	"strings"
)

// Line is a classified line: its content with any comment prefix removed,
// plus the 1-based physical line number it came from.
type Line struct {
	Number int
	Text   string
}

// CommentMode selects what a LineClassifier does with comment lines
type CommentMode int

const (
	// DropComments yields every non-blank line that is not a comment
	DropComments CommentMode = iota
	// OnlyComments yields the comment lines, with the matched prefix stripped
	OnlyComments
)

// LineClassifier picks the lines that belong to one table region.
type LineClassifier struct {
	// Comment matches a comment prefix at the start of a line; nil means no comments
	Comment *regexp.Regexp
	Mode    CommentMode
}

// Lines returns the lazy sequence of classified lines. Blank lines never
// appear in the output.
func (lc LineClassifier) Lines(all []string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for i, raw := range all {
			text, ok := lc.classify(raw)
			if !ok {
				continue
			}
			if !yield(Line{Number: i + 1, Text: text}) {
				return
			}
		}
	}
}

func (lc LineClassifier) classify(raw string) (string, bool) {
	var loc []int
	if lc.Comment != nil {
		loc = lc.Comment.FindStringIndex(raw)
		if loc != nil && loc[0] != 0 {
			loc = nil
		}
	}

	switch lc.Mode {
	case OnlyComments:
		if loc == nil {
			return "", false
		}
		text := raw[loc[1]:]
		if strings.TrimSpace(text) == "" {
			return "", false
		}
		return text, true
	default:
		if loc != nil || strings.TrimSpace(raw) == "" {
			return "", false
		}
		return raw, true
	}
}

// Select returns the classified lines in [start, end). A negative start or
// end counts from the end of the classified sequence; a nil end means "to
// the last line". Non-negative bounds stop consuming the sequence early.
func Select(lines iter.Seq[Line], start int, end *int) []Line {
	if start >= 0 && (end == nil || *end >= 0) {
		var out []Line
		i := 0
		for line := range lines {
			if end != nil && i >= *end {
				break
			}
			if i >= start {
				out = append(out, line)
			}
			i++
		}
		return out
	}

	var all []Line
	for line := range lines {
		all = append(all, line)
	}
	lo := normalizeIndex(start, len(all))
	hi := len(all)
	if end != nil {
		hi = normalizeIndex(*end, len(all))
	}
	if lo >= hi {
		return nil
	}
	return all[lo:hi]
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return i
}

// CompileComment compiles a comment pattern so that it only matches at the
// start of a line. An empty pattern disables comments.
func CompileComment(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^(?:" + pattern + ")"
	}
	return regexp.Compile(pattern)
}
