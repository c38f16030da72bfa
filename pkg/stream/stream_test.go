package stream

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func generate(t testing.TB, opt pt.GenOptions) ([]byte, pt.GenSummary) {
	t.Helper()
	var buf bytes.Buffer
	sum, err := pt.Generate(&buf, opt)
	require.NoError(t, err)
	return buf.Bytes(), sum
}

func decodeAll(data []byte, opt Options) ([]uint64, Stats) {
	var payloads []uint64
	stats := DecodeAll(data, opt, func(v uint64) { payloads = append(payloads, v) })
	return payloads, stats
}

func decodeChunked(t testing.TB, data []byte, opt Options) ([]uint64, Stats) {
	t.Helper()
	var payloads []uint64
	stats, err := NewDecoder(bytes.NewReader(data), opt).Run(func(v uint64) {
		payloads = append(payloads, v)
	})
	require.NoError(t, err)
	return payloads, stats
}

func TestDecodeAll(t *testing.T) {
	data, sum := generate(t, pt.GenOptions{Segments: 20, Packets: 40, Seed: 5, Garbage: 33})

	payloads, stats := decodeAll(data, Options{})
	if diff := cmp.Diff(sum.Payloads, payloads); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, stats.Stop)
	require.Equal(t, int64(33), stats.Skipped)
	require.Equal(t, int64(len(data)), stats.Offset)
	require.Equal(t, int64(len(sum.Payloads)), stats.Payloads)

	var want uint64
	for _, v := range sum.Payloads {
		want += v
	}
	require.Equal(t, want, stats.Sum)
}

func TestDecodeAllNoSync(t *testing.T) {
	payloads, stats := decodeAll(make([]byte, 100), Options{})
	require.Empty(t, payloads)
	require.ErrorIs(t, stats.Stop, pt.ErrNoSync)
	require.Equal(t, int64(100), stats.Skipped)
	require.Equal(t, int64(100), stats.Offset)
}

func TestDecodeAllResync(t *testing.T) {
	data, sum := generate(t, pt.GenOptions{Segments: 6, Packets: 30, Seed: 9})
	// Replace the PAD in front of the fourth PSB with a TSC opcode.
	data[sum.Syncs[3]-1] = 0x19

	_, stats := decodeAll(data, Options{})
	require.ErrorIs(t, stats.Stop, pt.ErrUnknownOpcode)
	require.Equal(t, int64(sum.Syncs[3]-1), stats.Offset)

	payloads, stats := decodeAll(data, Options{Resync: true})
	require.NoError(t, stats.Stop)
	require.Equal(t, sum.Payloads, payloads)
	require.Equal(t, 1, stats.Resyncs)
	require.Equal(t, int64(1), stats.Skipped)
}

// inputs returns streams exercising the carry-over logic.
func inputs(t *testing.T) map[string][]byte {
	clean, sum := generate(t, pt.GenOptions{Segments: 30, Packets: 60, Seed: 1, Garbage: 21})

	unknown := bytes.Clone(clean)
	unknown[sum.Syncs[12]-1] = 0x19

	badPSB := bytes.Clone(clean)
	badPSB[sum.Syncs[7]+5] = 0x00

	sparse, _ := generate(t, pt.GenOptions{Segments: 3, Packets: 2000, Seed: 2})

	marker := bytes.Repeat([]byte{pt.PSBHi, pt.PSBLo}, pt.PSBSize/pt.PSBRepeatSize)
	return map[string][]byte{
		"clean":       clean,
		"unknown":     unknown,
		"bad psb":     badPSB,
		"sparse":      sparse,
		"truncated":   append(bytes.Clone(clean), pt.OpcodeExt, pt.ExtPTW, 1, 2, 3),
		"zeros":       make([]byte, 3000),
		"empty":       nil,
		"marker only": marker,
		"long run":    append(append([]byte{0x01}, marker...), pt.PSBHi, pt.PSBLo, pt.OpcodeExt, pt.ExtPTW, 1, 2, 3, 4, 5, 6, 7, 8),
	}
}

// TestChunkedMatchesOnePass checks that decoding in chunks yields the same
// payloads and stats as decoding everything at once, for any chunk size.
func TestChunkedMatchesOnePass(t *testing.T) {
	chunkSizes := []int{1, 2, 7, 15, 16, 17, 18, 64, 1000, 4096, 1 << 20}
	for name, data := range inputs(t) {
		for _, resync := range []bool{false, true} {
			opt := Options{Resync: resync}
			want, wantStats := decodeAll(data, opt)
			for _, size := range chunkSizes {
				t.Run(fmt.Sprintf("%s/resync=%v/chunk=%d", name, resync, size), func(t *testing.T) {
					opt := opt
					opt.ChunkSize = size
					got, gotStats := decodeChunked(t, data, opt)

					if diff := cmp.Diff(want, got); diff != "" {
						t.Fatalf("payload mismatch (-want +got):\n%s", diff)
					}
					require.Equal(t, wantStats.Offset, gotStats.Offset)
					require.Equal(t, wantStats.Skipped, gotStats.Skipped)
					require.Equal(t, wantStats.Resyncs, gotStats.Resyncs)
					require.Equal(t, wantStats.Payloads, gotStats.Payloads)
					require.Equal(t, wantStats.Sum, gotStats.Sum)
					require.Equal(t, fmt.Sprint(wantStats.Stop), fmt.Sprint(gotStats.Stop))
				})
			}
		}
	}
}

func TestChunkedStops(t *testing.T) {
	data := inputs(t)

	_, stats := decodeChunked(t, data["bad psb"], Options{ChunkSize: 100})
	require.ErrorIs(t, stats.Stop, pt.ErrBadPSB)

	_, stats = decodeChunked(t, data["bad psb"], Options{ChunkSize: 100, Resync: true})
	require.NoError(t, stats.Stop)
	require.Equal(t, 1, stats.Resyncs)

	_, stats = decodeChunked(t, data["truncated"], Options{ChunkSize: 100})
	require.ErrorIs(t, stats.Stop, pt.ErrTruncated)

	_, stats = decodeChunked(t, data["zeros"], Options{ChunkSize: 100})
	require.ErrorIs(t, stats.Stop, pt.ErrNoSync)
	require.Equal(t, 30, stats.Chunks)
}

func TestChunkedLogger(t *testing.T) {
	data, sum := generate(t, pt.GenOptions{Segments: 3, Packets: 10, Seed: 4})
	log := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)

	got, stats := decodeChunked(t, data, Options{ChunkSize: 64, Logger: &log})
	require.Equal(t, sum.Payloads, got)
	require.NoError(t, stats.Stop)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, fmt.Errorf("boom") }

func TestChunkedReadError(t *testing.T) {
	_, err := NewDecoder(errReader{}, Options{}).Run(func(uint64) {})
	require.ErrorContains(t, err, "boom")
}

func BenchmarkDecoder(b *testing.B) {
	data, _ := generate(b, pt.GenOptions{Segments: 500, Packets: 500, Seed: 1})
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := NewDecoder(bytes.NewReader(data), Options{ChunkSize: 64 << 10}).Run(func(uint64) {})
		if err != nil {
			b.Fatal(err)
		}
	}
}
