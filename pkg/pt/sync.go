package pt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// psbWords are the only two ways an aligned 8 byte window can be filled by
// the repeating PSB unit.
var psbWords = [2]uint64{
	binary.NativeEndian.Uint64([]byte{PSBHi, PSBLo, PSBHi, PSBLo, PSBHi, PSBLo, PSBHi, PSBLo}),
	binary.NativeEndian.Uint64([]byte{PSBLo, PSBHi, PSBLo, PSBHi, PSBLo, PSBHi, PSBLo, PSBHi}),
}

// ErrNoSync is returned when a buffer contains no sync point.
var ErrNoSync = errors.New("no sync point found")

// ErrOneSync is matched by *OneSyncError via errors.Is.
var ErrOneSync = errors.New("only one sync point found")

// OneSyncError is returned by FindSyncRange when the buffer contains a single
// sync point, which is not enough to bound a decodable range.
type OneSyncError struct {
	// Offset is the position of the lone sync point.
	Offset int
}

func (e *OneSyncError) Error() string {
	return fmt.Sprintf("%s at offset %d", ErrOneSync, e.Offset)
}

// Is reports whether target is ErrOneSync.
func (e *OneSyncError) Is(target error) bool {
	return target == ErrOneSync
}

// Range is a half-open range of buffer offsets.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes in r.
func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string {
	return fmt.Sprintf("[%#x, %#x)", r.Start, r.End)
}

// FindNextSync returns the offset of the first PSB packet in buf.
//
// buf is scanned in 8 byte windows. A window that is not entirely made of the
// repeating PSB unit is skipped with a single comparison. On a match the
// pattern is followed forward to its end and the packet start is placed
// PSBSize bytes before that end. Candidates that don't leave room for a full
// packet, or whose 16 bytes don't verify, are rejected and scanning resumes
// with the next window.
func FindNextSync(buf []byte) (int, bool) {
	for w := 0; w+8 <= len(buf); w += 8 {
		word := binary.NativeEndian.Uint64(buf[w:])
		if word != psbWords[0] && word != psbWords[1] {
			continue
		}

		// The unit straddles the window if it does not start with PSBHi.
		start := w
		if buf[start] != PSBHi {
			start++
		}

		// The first 3 pairs are known to match already.
		end := psbRunEnd(buf, start+3*PSBRepeatSize)
		if off := end - PSBSize; off >= 0 && IsPSB(buf[off:]) {
			return off, true
		}
	}
	return 0, false
}

// psbRunEnd returns the offset of the first pair at or after pos that is not
// {PSBHi, PSBLo}. An incomplete trailing pair ends the run.
func psbRunEnd(buf []byte, pos int) int {
	for pos+PSBRepeatSize <= len(buf) && buf[pos] == PSBHi && buf[pos+1] == PSBLo {
		pos += PSBRepeatSize
	}
	return pos
}

// IsPSB reports whether buf starts with a complete PSB packet.
func IsPSB(buf []byte) bool {
	if len(buf) < PSBSize {
		return false
	}
	for i := 0; i < PSBSize; i += PSBRepeatSize {
		if buf[i] != PSBHi || buf[i+1] != PSBLo {
			return false
		}
	}
	return true
}

// SyncPoints returns the offsets of up to max sync points in buf in
// ascending order. A max <= 0 means no limit.
func SyncPoints(buf []byte, max int) []int {
	var points []int
	pos := 0
	for max <= 0 || len(points) < max {
		if pos >= len(buf) {
			break
		}
		off, ok := FindNextSync(buf[pos:])
		if !ok {
			break
		}
		points = append(points, pos+off)
		// Resume one byte past the sync point.
		pos += off + 1
	}
	return points
}

// FindSyncRange returns the range from the first to the last of up to max
// sync points found in buf. It returns ErrNoSync if buf contains no sync
// point and a *OneSyncError if it contains exactly one. A max <= 0 means no
// limit.
func FindSyncRange(buf []byte, max int) (Range, error) {
	points := SyncPoints(buf, max)
	switch len(points) {
	case 0:
		return Range{}, ErrNoSync
	case 1:
		return Range{}, &OneSyncError{Offset: points[0]}
	}
	return Range{Start: points[0], End: points[len(points)-1]}, nil
}
