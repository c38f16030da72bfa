//go:build !unix

package tracefile

import (
	"io"
	"os"
)

// mapFile reads all of f on platforms without mmap support.
func mapFile(f *os.File) (*File, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}
