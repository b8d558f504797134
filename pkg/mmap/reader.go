// Package mmap reads uncompressed input files through a read-only memory
// mapping instead of buffered file reads.
package mmap

import (
	stderrors "errors"
	"io"
	"os"
	"sync"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// ErrUnsupported is returned where memory mapping is not available: on
// other platforms and for files that are not regular files.
var ErrUnsupported = stderrors.New("mmap: unsupported")

// Reader is an io.ReadCloser over a mapped file.
type Reader struct {
	file *os.File
	data []byte
	off  int
	mu   sync.Mutex
}

// Open maps filename read-only. Empty files are not mapped and read as EOF.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", filename)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat file").
			WithDetail("path", filename)
	}
	if !stat.Mode().IsRegular() {
		file.Close()
		return nil, ErrUnsupported
	}

	r := &Reader{file: file}
	size := stat.Size()
	if size == 0 {
		return r, nil
	}
	if int64(int(size)) != size {
		file.Close()
		return nil, ErrUnsupported
	}

	data, err := mmap(int(file.Fd()), int(size))
	if err != nil {
		file.Close()
		if stderrors.Is(err, ErrUnsupported) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to mmap file").
			WithDetail("path", filename)
	}
	// advisory only
	_ = madvise(data, madvSequential)

	r.data = data
	return r, nil
}

// Bytes returns the whole mapping. It is invalid after Close.
func (r *Reader) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Len returns the file size
func (r *Reader) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Read copies the next bytes of the mapping into p.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	return n, nil
}

// Close unmaps the file and closes it
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.data != nil {
		err = munmap(r.data)
		r.data = nil
	}
	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to unmap file")
	}
	return nil
}
