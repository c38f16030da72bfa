package stream

import (
	"errors"

	"github.com/felixge/fastpt/pkg/pt"
)

// DecodeAll decodes data in a single pass starting at its first sync point
// and calls fn for every PTW payload. Only opt.Resync is used.
func DecodeAll(data []byte, opt Options, fn func(uint64)) Stats {
	stats := Stats{Chunks: 1}
	off, ok := pt.FindNextSync(data)
	if !ok {
		stats.Skipped = int64(len(data))
		stats.Offset = int64(len(data))
		stats.Stop = pt.ErrNoSync
		return stats
	}
	stats.Skipped = int64(off)

	seg := data[off:]
	dec := pt.NewDecoder(seg)
	for {
		for v := range dec.All() {
			stats.add(v)
			fn(v)
		}

		err := dec.Err()
		if err == nil || errors.Is(err, pt.ErrTruncated) || !opt.Resync {
			stats.Offset = int64(off + dec.Offset())
			stats.Stop = pt.Rebase(err, off)
			return stats
		}

		from := dec.Offset()
		if dec.SyncForward() != nil {
			stats.Skipped += int64(len(seg) - from)
			stats.Offset = int64(len(data))
			stats.Stop = pt.Rebase(err, off)
			return stats
		}
		stats.Skipped += int64(dec.Offset() - from)
		stats.Resyncs++
	}
}
