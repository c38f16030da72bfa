package breakdown

import (
	"bytes"
	"testing"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/stretchr/testify/require"
)

func TestByKind(t *testing.T) {
	var buf bytes.Buffer
	sum, err := pt.Generate(&buf, pt.GenOptions{Segments: 12, Packets: 90, Seed: 10, Garbage: 9})
	require.NoError(t, err)
	data := buf.Bytes()

	bd := ByKind(data)
	require.NoError(t, bd.Stop)
	require.Equal(t, int64(9), bd.Skipped)
	require.Equal(t, int64(0), bd.Undecoded)

	// The sum of all packet bytes equals the size of the stream after the
	// first sync point.
	var size int64
	for _, summary := range bd.Kinds {
		size += summary.Bytes
	}
	require.Equal(t, int64(len(data))-bd.Skipped, size)

	// Spot check of packet kinds
	require.Equal(t, pt.KindPSB, bd.Kinds[pt.KindPSB].Kind)
	require.Equal(t, int64(12), bd.Kinds[pt.KindPSB].Count)
	require.Equal(t, int64(12*pt.PSBSize), bd.Kinds[pt.KindPSB].Bytes)
	require.Equal(t, int64(12), bd.Kinds[pt.KindCBR].Count)
	require.Equal(t, int64(len(sum.Payloads)), bd.Kinds[pt.KindPTW].Count)
	require.Equal(t, int64(len(sum.Payloads)*10), bd.Kinds[pt.KindPTW].Bytes)
}

func TestByKindStop(t *testing.T) {
	var buf bytes.Buffer
	_, err := pt.Generate(&buf, pt.GenOptions{Segments: 2, Packets: 10, Seed: 1, Garbage: 2})
	require.NoError(t, err)
	data := append(buf.Bytes(), 0x19, 0x00, 0x00)

	bd := ByKind(data)
	require.ErrorIs(t, bd.Stop, pt.ErrUnknownOpcode)
	var decErr *pt.DecodeError
	require.ErrorAs(t, bd.Stop, &decErr)
	require.Equal(t, buf.Len(), decErr.Offset)
	require.Equal(t, int64(3), bd.Undecoded)

	bd = ByKind(make([]byte, 10))
	require.ErrorIs(t, bd.Stop, pt.ErrNoSync)
	require.Equal(t, int64(10), bd.Skipped)
	require.Empty(t, bd.Kinds)
}
