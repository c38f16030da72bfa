package pt

import "encoding/binary"

// FindNextSyncNaive is a byte-by-byte version of FindNextSync. It reports the
// first offset holding a complete PSB packet that is not immediately followed
// by another {PSBHi, PSBLo} pair. It is much slower than FindNextSync and
// exists to cross-check it.
func FindNextSyncNaive(buf []byte) (int, bool) {
	for i := 0; i+PSBSize <= len(buf); i++ {
		if buf[i] != PSBHi || !IsPSB(buf[i:]) {
			continue
		}
		next := i + PSBSize
		if next+1 < len(buf) && buf[next] == PSBHi && buf[next+1] == PSBLo {
			continue
		}
		return i, true
	}
	return 0, false
}

// FindNextSyncStepped steps through buf one 8 byte word at a time like
// FindNextSync, but starts following the pattern at the first pair past the
// matching word and verifies the packet backwards from the end of the run.
func FindNextSyncStepped(buf []byte) (int, bool) {
	for w := 0; w+8 <= len(buf); w += 8 {
		word := binary.NativeEndian.Uint64(buf[w : w+8])
		if word != psbWords[0] && word != psbWords[1] {
			continue
		}

		pos := w + 8
		if buf[w] == PSBLo {
			pos = w + 7
		}
		end := psbRunEnd(buf, pos)
		if end < PSBSize {
			continue
		}
		if IsPSB(buf[end-PSBSize : end]) {
			return end - PSBSize, true
		}
	}
	return 0, false
}
