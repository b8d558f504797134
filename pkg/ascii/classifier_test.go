package ascii

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []string{
	"# first comment",
	"a b",
	"",
	"   ",
	"  # indented",
	"1 2",
	"#",
	"3 4",
}

func collect(lc LineClassifier, all []string) []Line {
	var out []Line
	for l := range lc.Lines(all) {
		out = append(out, l)
	}
	return out
}

func TestClassifierDropComments(t *testing.T) {
	re, err := CompileComment(DefaultComment)
	require.NoError(t, err)

	got := collect(LineClassifier{Comment: re}, sample)
	assert.Equal(t, []Line{
		{Number: 2, Text: "a b"},
		{Number: 6, Text: "1 2"},
		{Number: 8, Text: "3 4"},
	}, got)
}

func TestClassifierOnlyComments(t *testing.T) {
	re, err := CompileComment(DefaultComment)
	require.NoError(t, err)

	got := collect(LineClassifier{Comment: re, Mode: OnlyComments}, sample)
	assert.Equal(t, []Line{
		{Number: 1, Text: " first comment"},
		{Number: 5, Text: " indented"},
	}, got)
}

func TestClassifierWithoutComments(t *testing.T) {
	got := collect(LineClassifier{}, sample)
	assert.Len(t, got, 6)
	assert.Equal(t, "# first comment", got[0].Text)
}

func TestClassifierStopsEarly(t *testing.T) {
	calls := 0
	lc := LineClassifier{}
	for range lc.Lines([]string{"a", "b", "c"}) {
		calls++
		break
	}
	assert.Equal(t, 1, calls)
}

func TestSelect(t *testing.T) {
	lines := LineClassifier{}.Lines([]string{"a", "b", "c", "d"})
	texts := func(ls []Line) []string {
		out := make([]string, len(ls))
		for i, l := range ls {
			out[i] = l.Text
		}
		return out
	}
	end := func(i int) *int { return &i }

	assert.Equal(t, []string{"b", "c", "d"}, texts(Select(lines, 1, nil)))
	assert.Equal(t, []string{"b", "c"}, texts(Select(lines, 1, end(3))))
	assert.Equal(t, []string{"d"}, texts(Select(lines, -1, nil)))
	assert.Equal(t, []string{"a", "b", "c"}, texts(Select(lines, 0, end(-1))))
	assert.Equal(t, []string{"a", "b", "c", "d"}, texts(Select(lines, -10, nil)))
	assert.Empty(t, Select(lines, 3, end(2)))
	assert.Empty(t, Select(lines, 10, nil))
}

func TestCompileComment(t *testing.T) {
	re, err := CompileComment("")
	require.NoError(t, err)
	assert.Nil(t, re)

	re, err = CompileComment("%")
	require.NoError(t, err)
	assert.True(t, re.MatchString("% x"))
	assert.False(t, re.MatchString("x %"))

	re, err = CompileComment("^!")
	require.NoError(t, err)
	assert.Equal(t, regexp.MustCompile("^!").String(), re.String())

	_, err = CompileComment("(")
	assert.Error(t, err)
}
