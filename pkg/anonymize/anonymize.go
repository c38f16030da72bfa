package anonymize

import (
	"encoding/binary"
	"io"

	"github.com/felixge/fastpt/pkg/pt"
)

// Options configures AnonymizeTrace.
type Options struct {
	// Key seeds the payload mapping. The same key maps equal payloads to
	// equal values, which keeps the output useful for comparing payloads.
	Key uint64
	// Zero replaces every payload with 0 instead.
	Zero bool
}

// AnonymizeTrace copies the stream in data to w and replaces every PTW payload
// with an obfuscated version of it. All other bytes, including the bytes
// before the first sync point and after decoding stopped, are copied as is,
// so the packet structure of the output is identical to the input. It
// returns the number of payloads replaced.
func AnonymizeTrace(data []byte, w io.Writer, opt Options) (int, error) {
	out := make([]byte, len(data))
	copy(out, data)

	var n int
	off, ok := pt.FindNextSync(data)
	if ok {
		dec := pt.NewDecoder(data[off:])
		var p pt.Packet
		for dec.Decode(&p) == nil {
			if p.Kind != pt.KindPTW {
				continue
			}
			v := uint64(0)
			if !opt.Zero {
				v = mix(p.Payload ^ opt.Key)
			}
			// The payload follows the 2 opcode bytes.
			binary.NativeEndian.PutUint64(out[off+p.Offset+2:], v)
			n++
		}
	}

	_, err := w.Write(out)
	return n, err
}

// mix is the splitmix64 finalizer, a bijection on uint64.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
