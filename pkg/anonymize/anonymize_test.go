package anonymize

import (
	"bytes"
	"slices"
	"testing"

	"github.com/felixge/fastpt/pkg/breakdown"
	"github.com/felixge/fastpt/pkg/pt"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeTrace(t *testing.T) {
	var buf bytes.Buffer
	sum, err := pt.Generate(&buf, pt.GenOptions{Segments: 5, Packets: 60, Seed: 14, Garbage: 11})
	require.NoError(t, err)
	in := append(buf.Bytes(), 0x19, 0xaa)

	anonymize := func(opt Options) []byte {
		var out bytes.Buffer
		n, err := AnonymizeTrace(in, &out, opt)
		require.NoError(t, err)
		require.Equal(t, len(sum.Payloads), n)
		require.Equal(t, len(in), out.Len())
		return out.Bytes()
	}

	out := anonymize(Options{Key: 42})
	// Packet structure is unchanged.
	require.Equal(t, breakdown.ByKind(in).Kinds, breakdown.ByKind(out).Kinds)
	require.Equal(t, in[:11], out[:11])
	require.Equal(t, in[len(in)-2:], out[len(out)-2:])

	got := payloads(out)
	require.Len(t, got, len(sum.Payloads))
	for i, v := range got {
		require.NotEqual(t, sum.Payloads[i], v)
		require.Equal(t, mix(sum.Payloads[i]^42), v)
	}

	// The same key gives the same output, a different key doesn't.
	require.Equal(t, out, anonymize(Options{Key: 42}))
	require.NotEqual(t, out, anonymize(Options{Key: 43}))

	zero := payloads(anonymize(Options{Zero: true}))
	require.Equal(t, make([]uint64, len(sum.Payloads)), zero)
}

func TestAnonymizeNoSync(t *testing.T) {
	in := []byte{1, 2, 3, 4}
	var out bytes.Buffer
	n, err := AnonymizeTrace(in, &out, Options{})
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, in, out.Bytes())
}

func payloads(data []byte) []uint64 {
	off, _ := pt.FindNextSync(data)
	return slices.Collect(pt.NewDecoder(data[off:]).All())
}
