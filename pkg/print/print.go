package print

import (
	"fmt"
	"io"
	"slices"

	"github.com/felixge/fastpt/pkg/pt"
)

// DefaultPacketFilter returns a filter that matches all packets.
func DefaultPacketFilter() PacketFilter {
	return PacketFilter{MaxOffset: -1}
}

// PacketFilter is used to filter packets.
type PacketFilter struct {
	// MinOffset prints packets starting at an offset >= MinOffset.
	MinOffset int64
	// MaxOffset prints packets starting at an offset <= MaxOffset. If
	// MaxOffset is -1, there is no upper limit.
	MaxOffset int64
	// Kinds prints packets of these kinds. If Kinds is empty, packets of all
	// kinds are printed.
	Kinds []pt.Kind
}

// Packets prints all packets contained in data that match the given filter
// to w. Offsets are relative to the start of data. Decoding starts at the
// first sync point, the reason it stopped is printed last.
func Packets(data []byte, w io.Writer, filter PacketFilter) error {
	off, ok := pt.FindNextSync(data)
	if !ok {
		_, err := fmt.Fprintf(w, "# stopped: %s\n", pt.ErrNoSync)
		return err
	}
	if off > 0 {
		fmt.Fprintf(w, "# skipped %d bytes\n", off)
	}

	dec := pt.NewDecoder(data[off:])
	var p pt.Packet
	for {
		err := dec.Decode(&p)
		if err == io.EOF {
			return nil
		} else if err != nil {
			_, err = fmt.Fprintf(w, "# stopped: %s\n", pt.Rebase(err, off))
			return err
		}
		p.Offset += off
		if !matchMinOffset(p, filter.MinOffset) ||
			!matchMaxOffset(p, filter.MaxOffset) ||
			!matchKinds(p, filter.Kinds) {
			continue
		}
		if _, err := io.WriteString(w, p.String()+"\n"); err != nil {
			return err
		}
	}
}

// matchMinOffset returns true if p starts at or after minOffset.
func matchMinOffset(p pt.Packet, minOffset int64) bool {
	return int64(p.Offset) >= minOffset
}

// matchMaxOffset returns true if p starts at or before maxOffset or maxOffset
// is -1.
func matchMaxOffset(p pt.Packet, maxOffset int64) bool {
	return maxOffset == -1 || int64(p.Offset) <= maxOffset
}

// matchKinds returns true if p is of one of kinds or kinds is empty.
func matchKinds(p pt.Packet, kinds []pt.Kind) bool {
	return len(kinds) == 0 || slices.Contains(kinds, p.Kind)
}
