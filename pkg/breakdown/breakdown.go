package breakdown

import (
	"io"

	"github.com/felixge/fastpt/pkg/pt"
)

// ByKind decodes data from its first sync point and returns a breakdown of it
// by packet kind.
func ByKind(data []byte) *Breakdown {
	bd := &Breakdown{Kinds: make(KindBreakdown)}
	off, ok := pt.FindNextSync(data)
	if !ok {
		bd.Skipped = int64(len(data))
		bd.Stop = pt.ErrNoSync
		return bd
	}
	bd.Skipped = int64(off)

	dec := pt.NewDecoder(data[off:])
	var p pt.Packet
	for {
		err := dec.Decode(&p)
		if err != nil {
			if err != io.EOF {
				bd.Stop = pt.Rebase(err, off)
			}
			break
		}
		bd.Kinds[p.Kind] = KindSummary{
			Kind:  p.Kind,
			Count: bd.Kinds[p.Kind].Count + 1,
			Bytes: bd.Kinds[p.Kind].Bytes + int64(p.Size),
		}
	}
	bd.Undecoded = int64(len(data) - off - dec.Offset())
	return bd
}

// Breakdown breaks down the size of a stream by packet kind.
type Breakdown struct {
	// Kinds holds a summary for every packet kind seen.
	Kinds KindBreakdown
	// Skipped is the number of bytes in front of the first sync point.
	Skipped int64
	// Undecoded is the number of bytes after the point where decoding
	// stopped.
	Undecoded int64
	// Stop is the error that stopped decoding, nil if all packets after the
	// first sync point were decoded.
	Stop error
}

// KindBreakdown maps packet kinds to their summary.
type KindBreakdown map[pt.Kind]KindSummary

// KindSummary summarizes the occurrence of a packet kind inside of a stream.
type KindSummary struct {
	// Kind is the kind of packet.
	Kind pt.Kind
	// Count is the number of times this kind occurred in the stream.
	Count int64
	// Bytes is the amount of data occupied by packets of this kind.
	Bytes int64
}
