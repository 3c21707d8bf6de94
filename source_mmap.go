//go:build unix

package lingva

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps the content of a regular file read-only.
func mapFile(f *os.File) ([]byte, func() error, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := fi.Size()
	switch {
	case !fi.Mode().IsRegular():
		return nil, nil, fmt.Errorf("%w: %q is not a regular file", errNotMappable, fi.Name())
	case size == 0:
		return nil, nil, fmt.Errorf("%w: %q is empty", errNotMappable, fi.Name())
	case size != int64(int(size)):
		return nil, nil, fmt.Errorf("%w: %q is too large", errNotMappable, fi.Name())
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
