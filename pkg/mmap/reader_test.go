package mmap

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

func supported(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("mmap is not available on " + runtime.GOOS)
	}
}

func TestReadMappedFile(t *testing.T) {
	supported(t)
	path := filepath.Join(t.TempDir(), "table.txt")
	require.NoError(t, os.WriteFile(path, []byte("a b\n1 2\n"), 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 8, r.Len())
	assert.Equal(t, "a b\n1 2\n", string(r.Bytes()))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a b\n1 2\n", string(data))

	require.NoError(t, r.Close())
	assert.Nil(t, r.Bytes())
	require.NoError(t, r.Close())
}

func TestSmallReads(t *testing.T) {
	supported(t)
	path := filepath.Join(t.TempDir(), "table.txt")
	require.NoError(t, os.WriteFile(path, []byte("abcdef"), 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(buf[:n]))
	_, err = r.Read(buf)
	assert.Equal(t, io.EOF, err)
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NoError(t, r.Close())
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = Open(t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupported)
}
