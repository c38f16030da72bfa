package pt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder writes packets to a writer.
type Encoder struct {
	w       io.Writer     // output writer
	err     error         // sticky error
	scratch [PSBSize]byte // scratch buf for encoding packets
	n       int           // bytes written so far
}

// NewEncoder returns a new encoder that writes to w.
// The encoder is unbuffered, wrap w in a bufio.Writer for larger streams.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Offset returns the number of bytes written so far.
func (e *Encoder) Offset() int { return e.n }

// Encode writes p to the encoder's writer. Only Kind, Opcode (for KindTNT8)
// and Payload are used.
func (e *Encoder) Encode(p *Packet) error {
	// Return error if any previous call to Encode failed
	if e.err != nil {
		return e.err
	}

	buf := e.scratch[:0]
	switch p.Kind {
	case KindPad:
		buf = append(buf, OpcodePad)
	case KindPSB:
		for i := 0; i < PSBSize; i += PSBRepeatSize {
			buf = append(buf, PSBHi, PSBLo)
		}
	case KindPSBEnd:
		buf = append(buf, OpcodeExt, ExtPSBEnd)
	case KindCBR:
		buf = append(buf, OpcodeExt, ExtCBR)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(p.Payload))
	case KindPTW:
		buf = append(buf, OpcodeExt, ExtPTW)
		buf = binary.NativeEndian.AppendUint64(buf, p.Payload)
	case KindTNT8:
		if p.Opcode&0x01 != 0 || p.Opcode == OpcodePad || p.Opcode == OpcodeExt {
			e.err = fmt.Errorf("invalid tnt opcode: %#04x", p.Opcode)
			return e.err
		}
		buf = append(buf, p.Opcode)
	default:
		e.err = fmt.Errorf("can't encode packet kind: %s", p.Kind)
		return e.err
	}
	return e.Write(buf)
}

// Write writes raw bytes, e.g. garbage in front of the first PSB.
func (e *Encoder) Write(b []byte) error {
	if e.err != nil {
		return e.err
	}
	var n int
	n, e.err = e.w.Write(b)
	e.n += n
	return e.err
}
