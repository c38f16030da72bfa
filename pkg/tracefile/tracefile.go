// Package tracefile opens trace captures, either mapped into memory or as a
// stream. Files ending in .xz are decompressed transparently.
package tracefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
	"golang.org/x/exp/mmap"
)

// File is a capture held in memory.
type File struct {
	// Data is the content of the capture. It must not be modified and is
	// only valid until Close is called.
	Data  []byte
	close func() error
}

// Close releases the memory held by f.
func (f *File) Close() error {
	if f.close == nil {
		return nil
	}
	err := f.close()
	f.close = nil
	f.Data = nil
	return err
}

// IsCompressed reports whether path is decompressed when opened.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".xz")
}

// Open makes the capture at path available in memory. Uncompressed files are
// mapped read-only where the platform supports it and read otherwise.
func Open(path string) (*File, error) {
	if IsCompressed(path) {
		r, err := OpenReader(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		return &File{Data: buf.Bytes()}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return mapFile(f)
}

// OpenReader returns a reader for the capture at path. Uncompressed files are
// read through a memory mapping.
func OpenReader(path string) (io.ReadCloser, error) {
	if IsCompressed(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to read xz header of %s: %w", path, err)
		}
		return readCloser{Reader: xr, Closer: f}, nil
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return readCloser{Reader: io.NewSectionReader(m, 0, int64(m.Len())), Closer: m}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Create creates the file at path for writing a capture. Writes are xz
// compressed if path ends in .xz.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	if !IsCompressed(path) {
		return f, nil
	}
	xw, err := xz.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &xzFile{Writer: xw, f: f}, nil
}

type xzFile struct {
	*xz.Writer
	f *os.File
}

func (x *xzFile) Close() error {
	if err := x.Writer.Close(); err != nil {
		x.f.Close()
		return err
	}
	return x.f.Close()
}
