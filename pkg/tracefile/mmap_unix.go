//go:build unix

package tracefile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps f read-only. The mapping stays valid after f is closed.
func mapFile(f *os.File) (*File, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &File{}, nil
	} else if size != int64(int(size)) {
		return nil, fmt.Errorf("%s: file too large to map: %d bytes", f.Name(), size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", f.Name(), err)
	}
	return &File{Data: data, close: func() error { return unix.Munmap(data) }}, nil
}
