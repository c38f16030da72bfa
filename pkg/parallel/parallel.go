// Package parallel decodes an in-memory stream on several goroutines by
// splitting it at sync points.
package parallel

import (
	"context"
	"runtime"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/felixge/fastpt/pkg/stream"
	"golang.org/x/sync/errgroup"
)

// Options configures Decode.
type Options struct {
	// Workers limits the number of segments decoded at once. Defaults to
	// GOMAXPROCS.
	Workers int
	// SegmentSize is the minimum number of bytes per segment. Segments always
	// start at a sync point. Defaults to 1 MiB.
	SegmentSize int
}

// segment is a range of data decoded by a single worker.
type segment struct {
	pt.Range
	payloads []uint64
	// clean is true if decoding ended exactly at the end of the segment.
	clean bool
}

// Decode decodes data and calls fn for every PTW payload in stream order. The
// result is the same as stream.DecodeAll without resync.
func Decode(ctx context.Context, data []byte, opt Options, fn func(uint64)) (stream.Stats, error) {
	if opt.Workers <= 0 {
		opt.Workers = runtime.GOMAXPROCS(0)
	}
	if opt.SegmentSize <= 0 {
		opt.SegmentSize = 1 << 20
	}

	segments := split(data, opt.SegmentSize)
	if len(segments) == 0 {
		return stream.DecodeAll(data, stream.Options{}, fn), nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.Workers)
	for _, seg := range segments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dec := pt.NewDecoder(data[seg.Start:seg.End])
			for v := range dec.All() {
				seg.payloads = append(seg.payloads, v)
			}
			seg.clean = dec.Err() == nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stream.Stats{}, err
	}

	stats := stream.Stats{Skipped: int64(segments[0].Start)}
	for _, seg := range segments {
		if !seg.clean {
			// Decode the rest sequentially so packets crossing the
			// segment boundary and decode errors behave like a single pass.
			tail := stream.DecodeAll(data[seg.Start:], stream.Options{}, func(v uint64) {
				stats.Payloads++
				stats.Sum += v
				fn(v)
			})
			stats.Chunks += tail.Chunks
			stats.Skipped += tail.Skipped
			stats.Offset = int64(seg.Start) + tail.Offset
			stats.Stop = pt.Rebase(tail.Stop, seg.Start)
			return stats, nil
		}
		for _, v := range seg.payloads {
			stats.Payloads++
			stats.Sum += v
			fn(v)
		}
		stats.Chunks++
	}
	stats.Offset = int64(len(data))
	return stats, nil
}

// split cuts data into segments of at least size bytes, each starting at a
// sync point. The last segment extends to the end of data.
func split(data []byte, size int) []*segment {
	points := pt.SyncPoints(data, 0)
	if len(points) == 0 {
		return nil
	}
	var segments []*segment
	start := points[0]
	for _, p := range points[1:] {
		if p-start >= size {
			segments = append(segments, &segment{Range: pt.Range{Start: start, End: p}})
			start = p
		}
	}
	return append(segments, &segment{Range: pt.Range{Start: start, End: len(data)}})
}
