package columnar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

func parse(t *testing.T, factory func(...ascii.Option) (*ascii.Reader, error), text string) *ascii.Table {
	t.Helper()
	r, err := factory()
	require.NoError(t, err)
	tbl, err := r.ParseString(text)
	require.NoError(t, err)
	return tbl
}

func TestFromTable(t *testing.T) {
	tbl := parse(t, ascii.CSV, "id,ratio,name\n1,0.5,a\n2,,b\n3,1.5,\n")

	store, err := FromTable(tbl, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, store.RowCount())
	assert.Equal(t, []string{"id", "ratio", "name"}, store.ColumnNames())

	id, ok := store.GetColumn("id")
	require.True(t, ok)
	assert.Equal(t, ColumnTypeInt, id.Type())
	assert.Equal(t, int64(2), id.Get(1))

	ratio := store.ColumnAt(1)
	assert.Equal(t, ColumnTypeFloat, ratio.Type())
	assert.True(t, ratio.IsNull(1))
	assert.Nil(t, ratio.Get(1))
	assert.Equal(t, 1.5, ratio.Get(2))
	assert.Equal(t, 1, ratio.NullCount())

	name := store.ColumnAt(2)
	assert.Equal(t, ColumnTypeString, name.Type())
	assert.True(t, name.IsNull(2))

	row, err := store.GetRow(0)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int64(1), "ratio": 0.5, "name": "a"}, row)

	_, err = store.GetRow(3)
	assert.Error(t, err)
}

func TestFromTableOverrides(t *testing.T) {
	tbl := parse(t, ascii.Basic, "a b\n1 1.5\n2 2.5\n")

	store, err := FromTable(tbl, map[string]ColumnType{"a": ColumnTypeString, "b": ColumnTypeFloat})
	require.NoError(t, err)
	assert.Equal(t, "1", store.ColumnAt(0).Get(0))

	_, err = FromTable(tbl, map[string]ColumnType{"b": ColumnTypeInt})
	require.Error(t, err)
	assert.True(t, errors.IsConversionError(err))
	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "b", e.Detail("column"))
	assert.Equal(t, "1.5", e.Detail("value"))
	assert.Equal(t, "int64", e.Detail("target"))

	_, err = FromTable(tbl, map[string]ColumnType{"missing": ColumnTypeInt})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestFromTableNumericTagWithText(t *testing.T) {
	tbl := parse(t, ascii.RDB, "a\tb\nN\tS\nx\ty\n")
	_, err := FromTable(tbl, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConversionError(err))
}

func TestAppendRow(t *testing.T) {
	store, err := NewColumnStore(&Schema{Fields: []FieldSchema{
		{Name: "n", Type: ColumnTypeInt},
		{Name: "s", Type: ColumnTypeString},
	}})
	require.NoError(t, err)

	require.NoError(t, store.AppendRow([]string{"7", "x"}, nil))
	require.NoError(t, store.AppendRow([]string{"", "y"}, []bool{true, false}))

	err = store.AppendRow([]string{"seven", "z"}, nil)
	assert.True(t, errors.IsConversionError(err))
	assert.Equal(t, 2, store.RowCount(), "failed row must not be stored")
	assert.Equal(t, 2, store.ColumnAt(0).Len())
	assert.Equal(t, 2, store.ColumnAt(1).Len())

	err = store.AppendRow([]string{"1"}, nil)
	assert.True(t, errors.IsRowLengthError(err))

	store.Clear()
	assert.Equal(t, 0, store.RowCount())
	assert.Equal(t, 0, store.ColumnAt(0).Len())
}

func TestDuplicateSchemaFields(t *testing.T) {
	_, err := NewColumnStore(&Schema{Fields: []FieldSchema{{Name: "a"}, {Name: "a"}}})
	assert.True(t, errors.IsConfigError(err))
}

func TestStringColumnDictionary(t *testing.T) {
	col := NewStringColumn()
	for i := 0; i < 300; i++ {
		require.NoError(t, col.Append(fmt.Sprintf("v%d", i%3)))
	}
	col.AppendNull()

	assert.True(t, col.Dictionary())
	assert.Equal(t, 301, col.Len())
	assert.Equal(t, "v0", col.Get(0))
	assert.Equal(t, "v2", col.Get(299))
	assert.Nil(t, col.Get(300))
	assert.Positive(t, col.MemoryUsage())

	col.Clear()
	assert.False(t, col.Dictionary())
	assert.Equal(t, 0, col.Len())
}

func TestIntColumnRange(t *testing.T) {
	col := NewIntColumn()
	_, _, ok := col.Range()
	assert.False(t, ok)

	for _, v := range []string{"5", " -3", "12 "} {
		require.NoError(t, col.Append(v))
	}
	col.AppendNull()
	lo, hi, ok := col.Range()
	assert.True(t, ok)
	assert.Equal(t, int64(-3), lo)
	assert.Equal(t, int64(12), hi)
	assert.Error(t, col.Append("1.0"))
}

func TestBatchIterator(t *testing.T) {
	tbl := parse(t, ascii.NoHeader, "1 a\n2 b\n3 c\n")
	store, err := FromTable(tbl, nil)
	require.NoError(t, err)

	it := store.NewBatchIterator(2)
	first, ok := it.NextBatch()
	require.True(t, ok)
	assert.Equal(t, [][]interface{}{{int64(1), "a"}, {int64(2), "b"}}, first)

	second, ok := it.NextBatch()
	require.True(t, ok)
	assert.Len(t, second, 1)

	_, ok = it.NextBatch()
	assert.False(t, ok)
}

func TestParseColumnType(t *testing.T) {
	for in, want := range map[string]ColumnType{
		"int": ColumnTypeInt, "Float64": ColumnTypeFloat, "str": ColumnTypeString,
	} {
		got, err := ParseColumnType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseColumnType("decimal")
	assert.Error(t, err)
	assert.Equal(t, ColumnTypeInt, FromSemantic(ascii.TypeInteger))
}
