package tracefile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, path string) []byte {
	t.Helper()
	w, err := Create(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = pt.Generate(io.MultiWriter(w, &buf), pt.GenOptions{Segments: 10, Packets: 100, Seed: 6, Garbage: 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	for _, name := range []string{"capture.raw", "capture.raw.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := writeCapture(t, path)

			f, err := Open(path)
			require.NoError(t, err)
			require.Equal(t, want, f.Data)
			require.NoError(t, f.Close())
			require.NoError(t, f.Close())

			r, err := OpenReader(path)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, want, got)
		})
	}
}

func TestOpenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.raw")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	require.Empty(t, f.Data)
	require.NoError(t, f.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.raw"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = OpenReader(filepath.Join(t.TempDir(), "missing.raw.xz"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
