//go:build !linux && !darwin

package mmap

func mmap(fd int, length int) ([]byte, error) {
	return nil, ErrUnsupported
}

func munmap(b []byte) error {
	return nil
}

func madvise(b []byte, advice int) error {
	return nil
}

const madvSequential = 0
