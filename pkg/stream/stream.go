// Package stream decodes PTW payloads from streams that are too large to hold
// in memory by decoding them in chunks.
package stream

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/rs/zerolog"
)

// DefaultChunkSize is used when Options.ChunkSize is not set.
const DefaultChunkSize = 4 << 20

// Options configures a Decoder.
type Options struct {
	// ChunkSize is the number of bytes read from the input at a time.
	ChunkSize int
	// Resync continues decoding at the next sync point after a packet fails
	// to decode instead of stopping.
	Resync bool
	// Logger receives debug events about chunks and carried bytes. Nothing
	// is logged if it is nil.
	Logger *zerolog.Logger
}

// Stats summarizes a decoding run.
type Stats struct {
	// Chunks is the number of chunks read.
	Chunks int
	// Skipped is the number of bytes skipped while looking for a sync point.
	Skipped int64
	// Resyncs is the number of times decoding continued at a later sync
	// point after a failure.
	Resyncs int
	// Offset is the stream offset where decoding stopped.
	Offset int64
	// Payloads is the number of PTW payloads.
	Payloads int64
	// Sum is the wrap-around sum of all payloads.
	Sum uint64
	// Stop is the reason decoding stopped. It is nil if the stream was
	// exhausted, pt.ErrNoSync if no sync point was found and a
	// *pt.DecodeError otherwise.
	Stop error
}

func (s *Stats) add(v uint64) {
	s.Payloads++
	s.Sum += v
}

// Decoder decodes a stream chunk by chunk. Bytes that can't be decoded yet
// are carried over into the next chunk, starting at the last sync point that
// was reached. The payloads seen are identical to decoding the whole stream
// in one pass.
type Decoder struct {
	r   io.Reader
	opt Options
	log zerolog.Logger

	// acc holds the bytes being decoded, next is the second accumulator it
	// is swapped with.
	acc, next []byte
	// base is the stream offset of acc[0].
	base int64
	// synced is true if acc[0] is the start of a sync point.
	synced bool
	// stop is the decode error that caused the last loss of sync.
	stop error
	// pending holds payloads after the last sync point of a chunk that may
	// still be decoded again from the carried bytes.
	pending []uint64
	stats   Stats
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opt Options) *Decoder {
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = DefaultChunkSize
	}
	log := zerolog.Nop()
	if opt.Logger != nil {
		log = *opt.Logger
	}
	return &Decoder{
		r:    r,
		opt:  opt,
		log:  log,
		stop: pt.ErrNoSync,
	}
}

// Run decodes the whole stream and calls fn for every PTW payload in stream
// order. Only read errors are returned, the reason decoding stopped is
// reported in Stats.Stop.
func (d *Decoder) Run(fn func(uint64)) (Stats, error) {
	for {
		n, final, err := d.readChunk()
		if err != nil {
			return d.stats, err
		}
		if n > 0 {
			d.stats.Chunks++
		}

		carry, done := d.decodeChunk(fn, final)
		if done || final {
			return d.stats, nil
		}
		d.swap(carry)
	}
}

// readChunk appends up to ChunkSize bytes to acc. It returns the number of
// bytes read and whether the end of the input was reached.
func (d *Decoder) readChunk() (int, bool, error) {
	n := len(d.acc)
	d.acc = slices.Grow(d.acc, d.opt.ChunkSize)
	read, err := io.ReadFull(d.r, d.acc[n:n+d.opt.ChunkSize])
	d.acc = d.acc[:n+read]
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return read, true, nil
	case err != nil:
		return read, false, fmt.Errorf("read chunk at offset %d: %w", d.base+int64(n), err)
	}
	return read, false, nil
}

// swap moves acc[carry:] to the front of the other accumulator and makes it
// the current one.
func (d *Decoder) swap(carry int) {
	d.next = append(d.next[:0], d.acc[carry:]...)
	d.acc, d.next = d.next, d.acc
	d.base += int64(carry)
	d.log.Debug().
		Int64("base", d.base).
		Int("carried", len(d.acc)).
		Bool("synced", d.synced).
		Msg("carry over")
}

// decodeChunk decodes as much of acc as possible. It returns the offset in
// acc from which bytes must be carried into the next chunk, and whether
// decoding is done for good.
func (d *Decoder) decodeChunk(fn func(uint64), final bool) (carry int, done bool) {
	pos := 0
	for {
		if !d.synced {
			off, ok := pt.FindNextSync(d.acc[pos:])
			switch {
			case !ok && final:
				d.skip(int64(len(d.acc) - pos))
				d.stats.Offset = d.base + int64(len(d.acc))
				d.stats.Stop = d.stop
				return len(d.acc), true
			case !ok:
				// Keep enough bytes for a sync point straddling the chunk
				// boundary.
				keep := min(len(d.acc)-pos, pt.PSBSize-1)
				d.skip(int64(len(d.acc) - pos - keep))
				return len(d.acc) - keep, false
			}
			d.skip(int64(off))
			pos += off
			if !final && pos+pt.PSBSize+pt.PSBRepeatSize > len(d.acc) {
				// The pattern may continue in the next chunk and move the
				// sync point.
				return pos, false
			}
			if d.stop != pt.ErrNoSync {
				d.stats.Resyncs++
			}
			d.synced = true
			d.stop = nil
		}

		dec := pt.NewDecoder(d.acc[pos:])
		lastSync := 0
		for {
			v, ok := dec.Next()
			if dec.SyncOffset() != lastSync {
				d.commit(fn)
				lastSync = dec.SyncOffset()
			}
			if !ok {
				break
			}
			d.pending = append(d.pending, v)
		}

		err := dec.Err()
		if !final && (err == nil || errors.Is(err, pt.ErrTruncated)) {
			// Everything after the last sync point is decoded again with
			// the next chunk.
			d.log.Debug().
				Int64("offset", d.base+int64(pos+dec.Offset())).
				Int("dropped", len(d.pending)).
				Err(err).
				Msg("chunk exhausted")
			d.pending = d.pending[:0]
			return pos + dec.SyncOffset(), false
		}
		d.commit(fn)

		stopAt := pos + dec.Offset()
		if err == nil || errors.Is(err, pt.ErrTruncated) || !d.opt.Resync {
			d.stats.Offset = d.base + int64(stopAt)
			d.stats.Stop = pt.Rebase(err, int(d.base)+pos)
			return len(d.acc), true
		}

		d.log.Debug().
			Int64("offset", d.base+int64(stopAt)).
			Err(err).
			Msg("resync")
		d.synced = false
		d.stop = pt.Rebase(err, int(d.base)+pos)
		pos = stopAt
	}
}

// commit hands all pending payloads to fn.
func (d *Decoder) commit(fn func(uint64)) {
	for _, v := range d.pending {
		d.stats.add(v)
		fn(v)
	}
	d.pending = d.pending[:0]
}

func (d *Decoder) skip(n int64) {
	if n > 0 {
		d.stats.Skipped += n
	}
}
