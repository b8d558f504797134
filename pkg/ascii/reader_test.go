package ascii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

func mustReader(t *testing.T, factory func(...Option) (*Reader, error), opts ...Option) *Reader {
	t.Helper()
	r, err := factory(opts...)
	require.NoError(t, err)
	return r
}

func TestBasicParse(t *testing.T) {
	r := mustReader(t, Basic)
	tbl, err := r.ParseString("a b c\n1 2 3\n4 5 6\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows())
	for _, col := range tbl.Columns {
		assert.Equal(t, TypeInteger, col.Type, "column %s", col.Name)
	}
	assert.Equal(t, []string{"1", "4"}, tbl.Column("a").Values)
	assert.Equal(t, Row{"4", "5", "6"}, tbl.Rows[1])
}

func TestBasicSkipsCommentsAndBlankLines(t *testing.T) {
	r := mustReader(t, Basic)
	tbl, err := r.ParseString("# Column definition is the first uncommented line\n" +
		"apples oranges pears\n\n  # indented comment\n1 2.5 x\n\n4 5 y\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"apples", "oranges", "pears"}, tbl.Names())
	require.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, TypeInteger, tbl.Column("apples").Type)
	assert.Equal(t, TypeFloat, tbl.Column("oranges").Type)
	assert.Equal(t, TypeString, tbl.Column("pears").Type)
}

func TestBasicQuotedFields(t *testing.T) {
	r := mustReader(t, Basic)
	tbl, err := r.ParseString("name note\n\"John Smith\" \"said \"\"hi\"\"\"\n")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, Row{"John Smith", `said "hi"`}, tbl.Rows[0])
}

func TestBasicRowLengthError(t *testing.T) {
	r := mustReader(t, Basic)
	_, err := r.ParseString("# leading comment\na b c\n1 2\n")
	require.Error(t, err)
	assert.True(t, errors.IsRowLengthError(err))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 3, e.Detail("line_number"))
	assert.Equal(t, 3, e.Detail("expected"))
	assert.Equal(t, 2, e.Detail("actual"))
	assert.Equal(t, "1 2", e.Detail("line"))
}

func TestBasicEmptyInputIsFormatError(t *testing.T) {
	r := mustReader(t, Basic)
	_, err := r.ParseString("# only a comment\n\n")
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
}

func TestBasicHeaderOnly(t *testing.T) {
	r := mustReader(t, Basic)
	tbl, err := r.ParseString("a b\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, TypeInteger, tbl.Column("a").Type)
}

func TestNoHeaderSynthesizesNames(t *testing.T) {
	r := mustReader(t, NoHeader)
	tbl, err := r.ParseString("1 2 3\n4 5 6\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"col1", "col2", "col3"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows())
}

func TestNoHeaderAutoFormat(t *testing.T) {
	r := mustReader(t, NoHeader, WithAutoFormat("field_%d"))
	tbl, err := r.ParseString("1 2\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"field_1", "field_2"}, tbl.Names())
}

func TestNoHeaderEmptyInput(t *testing.T) {
	r := mustReader(t, NoHeader)
	tbl, err := r.ParseString("")
	require.NoError(t, err)
	assert.Empty(t, tbl.Columns)
	assert.Equal(t, 0, tbl.NumRows())
}

func TestNoHeaderRejectsHeaderStart(t *testing.T) {
	_, err := NoHeader(WithHeaderStart(1))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestCommentedHeader(t *testing.T) {
	r := mustReader(t, CommentedHeader)
	tbl, err := r.ParseString("# a b c\n1 2 3\n4 5 6\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, Row{"1", "2", "3"}, tbl.Rows[0])
}

func TestCommentedHeaderNegativeStart(t *testing.T) {
	r := mustReader(t, CommentedHeader, WithHeaderStart(-1))
	tbl, err := r.ParseString("# a b c\n# x y z\n1 2 3\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, tbl.Names())
	assert.Equal(t, 1, tbl.NumRows())
}

func TestNegativeHeaderStartOnlyForComments(t *testing.T) {
	_, err := Basic(WithHeaderStart(-1))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestTabKeepsWhitespace(t *testing.T) {
	r := mustReader(t, Tab)
	tbl, err := r.ParseString("a\tb\n x\t y \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, Row{" x", " y "}, tbl.Rows[0])
}

func TestTabEmptyFieldIsMasked(t *testing.T) {
	r := mustReader(t, Tab)
	tbl, err := r.ParseString("a\tb\n1\t\n2\t3\n")
	require.NoError(t, err)
	b := tbl.Column("b")
	assert.Equal(t, []bool{true, false}, b.Mask)
	assert.Equal(t, TypeInteger, b.Type)
}

func TestCSVPadsShortRows(t *testing.T) {
	r := mustReader(t, CSV)
	tbl, err := r.ParseString("a,b,c\n1,2\n3,4,5\n")
	require.NoError(t, err)
	require.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, Row{"1", "2", ""}, tbl.Rows[0])
	assert.Equal(t, Row{"3", "4", "5"}, tbl.Rows[1])
	assert.Equal(t, 1, tbl.Padded)

	c := tbl.Column("c")
	assert.True(t, c.IsMasked(0))
	assert.False(t, c.IsMasked(1))
	assert.Equal(t, TypeInteger, c.Type)
}

func TestCSVLongRowFails(t *testing.T) {
	r := mustReader(t, CSV)
	_, err := r.ParseString("a,b\n1,2,3\n")
	require.Error(t, err)
	assert.True(t, errors.IsRowLengthError(err))
}

func TestCSVHashIsData(t *testing.T) {
	r := mustReader(t, CSV)
	tbl, err := r.ParseString("id,tag\n1,#red\n")
	require.NoError(t, err)
	assert.Equal(t, Row{"1", "#red"}, tbl.Rows[0])
}

func TestCSVQuotedDelimiter(t *testing.T) {
	r := mustReader(t, CSV)
	tbl, err := r.ParseString("city,pop\n\"Paris, FR\",2100000\n")
	require.NoError(t, err)
	assert.Equal(t, "Paris, FR", tbl.Column("city").Values[0])
	assert.Equal(t, TypeInteger, tbl.Column("pop").Type)
}

func TestRDBTypes(t *testing.T) {
	r := mustReader(t, RDB)
	tbl, err := r.ParseString("a\tb\nN\tS\n1\tx\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, TypeInteger, tbl.Column("a").Type)
	assert.Equal(t, TypeString, tbl.Column("b").Type)
	assert.Equal(t, "N", tbl.Column("a").RawType)
}

func TestRDBNumericAndStringTags(t *testing.T) {
	r := mustReader(t, RDB)
	tbl, err := r.ParseString("x\ty\tz\n10N\t5s\tN\n1.5\t42\t7\n2\t43\t8\n")
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, tbl.Column("x").Type)
	assert.Equal(t, TypeString, tbl.Column("y").Type)
	assert.Equal(t, TypeInteger, tbl.Column("z").Type)
}

func TestRDBBadTag(t *testing.T) {
	r := mustReader(t, RDB)
	_, err := r.ParseString("a\tb\nN\tZ\n1\tx\n")
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
	assert.Contains(t, err.Error(), "rdb type definitions do not all match")
}

func TestRDBTagCountMismatch(t *testing.T) {
	r := mustReader(t, RDB)
	_, err := r.ParseString("a\tb\nN\n1\tx\n")
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
}

func TestRDBMissingTypeLine(t *testing.T) {
	r := mustReader(t, RDB)
	_, err := r.ParseString("a\tb\n")
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
	assert.Contains(t, err.Error(), "rdb header requires 2 lines")
}

func TestDuplicateNames(t *testing.T) {
	r := mustReader(t, Basic)
	tbl, err := r.ParseString("a a b a\n1 2 3 4\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_1", "b", "a_2"}, tbl.Names())
}

func TestDataEnd(t *testing.T) {
	r := mustReader(t, Basic, WithDataEnd(3))
	tbl, err := r.ParseString("a\n1\n# skipped\n2\n3\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tbl.Column("a").Values)
}

func TestDataNegativeEnd(t *testing.T) {
	r := mustReader(t, Basic, WithDataEnd(-1))
	tbl, err := r.ParseString("a\n1\n2\n3\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tbl.Column("a").Values)
}

func TestDataStart(t *testing.T) {
	r := mustReader(t, Basic, WithDataStart(2))
	tbl, err := r.ParseString("a b\nunits units\n1 2\n")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, TypeInteger, tbl.Column("a").Type)
}

func TestFillValuesWithColumnScope(t *testing.T) {
	r := mustReader(t, Basic, WithFillValues(
		FillValue{Match: "-99", Replacement: "0", Columns: []string{"b"}},
	))
	tbl, err := r.ParseString("a b\n1 -99\n-99 2\n")
	require.NoError(t, err)

	a := tbl.Column("a")
	assert.Equal(t, []bool{false, false}, a.Mask)
	assert.Equal(t, []string{"1", "-99"}, a.Values)

	b := tbl.Column("b")
	assert.Equal(t, []bool{true, false}, b.Mask)
	assert.Equal(t, []string{"0", "2"}, b.Values)
	assert.Equal(t, TypeInteger, b.Type)
}

func TestFillValuesFirstRuleWins(t *testing.T) {
	r := mustReader(t, Basic, WithFillValues(
		FillValue{Match: "--", Replacement: "1", Columns: []string{"a"}},
		FillValue{Match: "--", Replacement: "2"},
	))
	tbl, err := r.ParseString("a b\n-- --\n")
	require.NoError(t, err)
	assert.Equal(t, "1", tbl.Column("a").Values[0])
	assert.Equal(t, "2", tbl.Column("b").Values[0])
}

func TestMaskedValuesDoNotAffectTypes(t *testing.T) {
	r := mustReader(t, CSV, WithFillValues(
		FillValue{Match: ""},
		FillValue{Match: "N/A"},
	))
	tbl, err := r.ParseString("x\n1\nN/A\n\n3\n")
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, tbl.Column("x").Type)
	assert.Equal(t, []bool{false, true, false}, tbl.Column("x").Mask)
}

func TestAllMaskedColumnIsInteger(t *testing.T) {
	r := mustReader(t, CSV)
	tbl, err := r.ParseString("a,b\n1,\n2,\n")
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, tbl.Column("b").Type)
}

func TestBadCommentPatternIsConfigError(t *testing.T) {
	_, err := Basic(WithComment("(["))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestCustomComment(t *testing.T) {
	r := mustReader(t, Basic, WithComment("!"))
	tbl, err := r.ParseString("! note\na\n#1\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"#1"}, tbl.Column("a").Values)
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero delimiter", WithDelimiter(0)},
		{"newline delimiter", WithDelimiter('\n')},
		{"quote equals delimiter", WithQuoteChar(' ')},
		{"delimiter equals quote", WithDelimiter('"')},
		{"auto format without verb", WithAutoFormat("col")},
		{"auto format with two verbs", WithAutoFormat("c%d_%d")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Basic(tt.opt)
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))
		})
	}
}

func TestDelimiterOnQuoteNeedsQuotingOff(t *testing.T) {
	r := mustReader(t, Basic, WithQuoteChar(NoQuote), WithDelimiter('"'))
	tbl, err := r.ParseString("a\"b\n1\"x y\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	assert.Equal(t, []string{"x y"}, tbl.Column("b").Values)
}

func TestHeaderKinds(t *testing.T) {
	tests := []struct {
		factory func(...Option) (*Reader, error)
		kind    HeaderKind
		name    string
	}{
		{Basic, HeaderFirstLine, "first_line"},
		{NoHeader, HeaderNone, "no_header"},
		{CommentedHeader, HeaderCommentLine, "comment_line"},
		{Tab, HeaderFirstLine, "first_line"},
		{CSV, HeaderFirstLine, "first_line"},
		{RDB, HeaderTwoLineTyped, "two_line_typed"},
	}
	for _, tt := range tests {
		r := mustReader(t, tt.factory)
		assert.Equal(t, tt.kind, r.Header.Kind, r.Name)
		assert.Equal(t, tt.name, r.Header.Kind.String(), r.Name)
	}
	assert.Equal(t, "HeaderKind(9)", HeaderKind(9).String())
}

func TestWriteKeepsCommentLikeRows(t *testing.T) {
	in := mustReader(t, CSV)
	tbl, err := in.ParseString("a,b\n#x,1\n,2\n")
	require.NoError(t, err)

	out := mustReader(t, Basic)
	text, err := out.WriteString(tbl)
	require.NoError(t, err)
	assert.Equal(t, "a b\n\"#x\" 1\n\"\" 2\n", text)

	back, err := out.ParseString(text)
	require.NoError(t, err)
	require.Equal(t, 2, back.NumRows())
	assert.Equal(t, "#x", back.Column("a").Values[0])
	assert.True(t, back.Column("a").IsMasked(1))
}

func TestWriteLeavesBlankRowsWithoutQuoting(t *testing.T) {
	r := mustReader(t, CSV, WithQuoteChar(NoQuote))
	lines, err := r.Write(NewTable([]string{"a"}, []Row{{"1"}, {""}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", ""}, lines)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		factory func(...Option) (*Reader, error)
		input   string
	}{
		{"basic", Basic, "a b c\n1 2 3\n4 5 6\n"},
		{"basic quoted", Basic, "name x\n\"a b\" 1\n\"\" 2\n"},
		{"no_header", NoHeader, "1 2 3\n4 5 6\n"},
		{"commented_header", CommentedHeader, "# a b\n1 x\n2 y\n"},
		{"tab", Tab, "a\tb\n1\tx y\n2\t\n"},
		{"csv", CSV, "a,b,c\n1,2,\n\"x,y\",4,5\n"},
		{"rdb", RDB, "a\tb\nN\tS\n1\tx\n2\ty\n"},
		{"basic value like a comment", Basic, "a b\n\"#x\" 1\n2 3\n"},
		{"basic name like a comment", Basic, "\"#a\" b\n1 2\n"},
		{"tab value like a comment", Tab, "a\tb\n\"  #x\"\t1\n2\t3\n"},
		{"rdb value like a comment", RDB, "a\tb\nS\tN\n\"#x\"\t1\n"},
		{"csv single masked column", CSV, "a\n1\n\"\"\n3\n"},
		{"tab single empty column", Tab, "a\n1\n\"\"\n3\n"},
		{"tab single blank column", Tab, "a\n1\n\"  \"\n3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustReader(t, tt.factory, WithLogger(zaptest.NewLogger(t)))
			first, err := r.ParseString(tt.input)
			require.NoError(t, err)

			text, err := r.WriteString(first)
			require.NoError(t, err)

			second, err := r.ParseString(text)
			require.NoError(t, err, "reparse of %q", text)

			assert.Equal(t, first.Names(), second.Names())
			require.Equal(t, first.NumRows(), second.NumRows())
			for i, col := range first.Columns {
				other := second.Columns[i]
				assert.Equal(t, col.Type, other.Type, "column %s", col.Name)
				assert.Equal(t, col.Mask, other.Mask, "column %s", col.Name)
				for r := range col.Values {
					if col.IsMasked(r) {
						continue
					}
					assert.Equal(t, col.Values[r], other.Values[r], "column %s row %d", col.Name, r)
				}
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	tbl := NewTable([]string{"a", "b"}, []Row{{"1", "x"}, {"2", "y"}})

	r := mustReader(t, RDB)
	lines, err := r.Write(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"a\tb", "N\tS", "1\tx", "2\ty"}, lines)

	c := mustReader(t, CommentedHeader)
	text, err := c.WriteString(NewTable([]string{"a", "b"}, []Row{{"1", "x"}}))
	require.NoError(t, err)
	assert.Equal(t, "# a b\n1 x\n", text)

	n := mustReader(t, NoHeader)
	text, err = n.WriteString(NewTable([]string{"a"}, []Row{{"1"}}))
	require.NoError(t, err)
	assert.Equal(t, "1\n", text)
}

func TestWriteMaskedUsesWriteFill(t *testing.T) {
	r := mustReader(t, Basic, WithWriteFill("--"))
	tbl, err := r.ParseString("a,b\n")
	require.NoError(t, err)
	require.Equal(t, []string{"a,b"}, tbl.Names())

	csv := mustReader(t, CSV)
	tbl, err = csv.ParseString("a,b\n1,\n")
	require.NoError(t, err)
	lines, err := r.Write(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b", "1 --"}, lines)
}

func TestWriteRejectsRaggedColumns(t *testing.T) {
	tbl := NewTable([]string{"a"}, []Row{{"1"}, {"2"}})
	tbl.Columns[0].Values = tbl.Columns[0].Values[:1]
	r := mustReader(t, Basic)
	_, err := r.Write(tbl)
	assert.Error(t, err)
}

func TestReaderIsReusable(t *testing.T) {
	r := mustReader(t, NoHeader)
	first, err := r.ParseString("1 2\n")
	require.NoError(t, err)
	second, err := r.ParseString("1 2 3\n")
	require.NoError(t, err)
	assert.Len(t, first.Columns, 2)
	assert.Len(t, second.Columns, 3)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, SplitLines("a\r\nb\n\n"))
	assert.Nil(t, SplitLines(""))
}
