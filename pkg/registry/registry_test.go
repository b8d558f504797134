package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

func TestBuiltinDialects(t *testing.T) {
	want := []string{"basic", "commented_header", "csv", "no_header", "rdb", "tab"}
	assert.Equal(t, want, List())
	assert.Equal(t, want, NewBuiltinRegistry().List())
	for _, name := range want {
		assert.True(t, Has(name), name)
	}
}

func TestCreate(t *testing.T) {
	r, err := Create("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Name)

	tbl, err := r.ParseString("a,b\n1,2\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
}

func TestCreateWithOptions(t *testing.T) {
	r, err := Create("basic", ascii.WithDelimiter('|'))
	require.NoError(t, err)
	tbl, err := r.ParseString("a|b\n1|2\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
}

func TestCreateUnknown(t *testing.T) {
	_, err := Create("fixed_width")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestCreatePassesConfigErrors(t *testing.T) {
	_, err := Create("basic", ascii.WithComment("(["))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("pipe", func(opts ...ascii.Option) (*ascii.Reader, error) {
		return ascii.Basic(append([]ascii.Option{ascii.WithDelimiter('|')}, opts...)...)
	}))
	err := r.Register("pipe", ascii.Basic)
	assert.True(t, errors.IsConfigError(err))

	assert.Error(t, r.Register("", ascii.Basic))
	assert.Error(t, r.Register("nil", nil))

	info, err := r.Info("pipe")
	require.NoError(t, err)
	assert.Equal(t, "|", info.Delimiter)

	r.Clear()
	assert.Empty(t, r.List())
}

func TestInfo(t *testing.T) {
	reg := NewBuiltinRegistry()

	csv, err := reg.Info("csv")
	require.NoError(t, err)
	assert.Equal(t, ",", csv.Delimiter)
	assert.True(t, csv.PadsRows)
	assert.Empty(t, csv.Comment)

	rdb, err := reg.Info("rdb")
	require.NoError(t, err)
	assert.Equal(t, "tab", rdb.Delimiter)
	assert.Equal(t, "two_line_typed", rdb.Header)

	infos := reg.Infos()
	require.Len(t, infos, 6)
	assert.Equal(t, "basic", infos[0].Name)
	assert.Equal(t, "space", infos[0].Delimiter)
	assert.NotEmpty(t, infos[0].Description)
}
