package pt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
)

// Decode errors. A *DecodeError wraps one of these.
var (
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrUnknownExtOpcode = errors.New("unknown extended opcode")
	ErrBadPSB           = errors.New("bad psb packet")
	// ErrTruncated is returned for a packet that runs past the end of the
	// buffer. More data may complete it.
	ErrTruncated = errors.New("truncated packet")
)

// DecodeError describes why decoding stopped.
type DecodeError struct {
	// Err is one of the sentinel decode errors.
	Err error
	// Offset is the start of the packet that failed to decode.
	Offset int
	// Opcode and Ext are the opcode bytes of the packet. Ext is only set for
	// extended opcodes.
	Opcode byte
	Ext    byte
}

func (e *DecodeError) Error() string {
	if e.Opcode == OpcodeExt && !errors.Is(e.Err, ErrUnknownOpcode) {
		return fmt.Sprintf("%s at offset %#x: opcode=%#04x ext=%#04x", e.Err, e.Offset, e.Opcode, e.Ext)
	}
	return fmt.Sprintf("%s at offset %#x: opcode=%#04x", e.Err, e.Offset, e.Opcode)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Rebase returns a copy of err with its offset moved by base if err is a
// *DecodeError. Other errors are returned as is.
func Rebase(err error, base int) error {
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		return err
	}
	rebased := *decErr
	rebased.Offset += base
	return &rebased
}

// Decoder decodes packets from a buffer that starts with a PSB packet.
// Use FindNextSync to find a suitable starting point.
type Decoder struct {
	data    []byte
	pos     int   // current position, only moves forward
	syncPos int   // start of the last PSB decoded
	err     error // sticky stop reason for Next
}

// NewDecoder returns a decoder for data. data[0] must be the start of a PSB
// packet.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// SyncOffset returns the start of the most recently decoded PSB packet. It
// is 0 for a fresh decoder. Callers decoding a stream in chunks carry the
// bytes from SyncOffset onward into the next chunk.
func (d *Decoder) SyncOffset() int { return d.syncPos }

// Offset returns the current position of the decoder.
func (d *Decoder) Offset() int { return d.pos }

// Err returns the error that stopped Next, or nil if Next stopped because the
// buffer was exhausted.
func (d *Decoder) Err() error { return d.err }

// SyncForward moves the decoder to the next PSB packet after the current
// sync point and position and clears any previous error. It returns
// ErrNoSync and leaves the decoder unchanged if there is none.
func (d *Decoder) SyncForward() error {
	from := d.pos
	if from <= d.syncPos {
		from = d.syncPos + 1
	}
	if from >= len(d.data) {
		return ErrNoSync
	}
	off, ok := FindNextSync(d.data[from:])
	if !ok {
		return ErrNoSync
	}
	d.pos = from + off
	d.syncPos = d.pos
	d.err = nil
	return nil
}

// Next decodes packets until it finds a PTW packet and returns its payload.
// It returns false when the buffer is exhausted or a packet fails to decode;
// Err tells the two apart.
func (d *Decoder) Next() (uint64, bool) {
	if d.err != nil {
		return 0, false
	}
	var p Packet
	for {
		if err := d.Decode(&p); err != nil {
			if err != io.EOF {
				d.err = err
			}
			return 0, false
		}
		if p.Kind == KindPTW {
			return p.Payload, true
		}
	}
}

// All returns an iterator over the remaining PTW payloads. See Next.
func (d *Decoder) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for {
			v, ok := d.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Decode decodes the next packet into p. It returns io.EOF if the buffer is
// exhausted and a *DecodeError if the packet can't be decoded. On error the
// position is left at the start of the failing packet.
func (d *Decoder) Decode(p *Packet) error {
	if d.pos >= len(d.data) {
		return io.EOF
	}

	start := d.pos
	opcode := d.data[start]
	*p = Packet{Offset: start, Opcode: opcode}

	switch {
	case opcode == OpcodePad:
		p.Kind = KindPad
		p.Size = 1

	case opcode == OpcodeExt:
		if start+2 > len(d.data) {
			return d.fail(ErrTruncated, start, 0)
		}
		ext := d.data[start+1]
		switch ext {
		case ExtPSB:
			if start+PSBSize > len(d.data) {
				return d.fail(ErrTruncated, start, ext)
			}
			// Check the payload pair by pair.
			for i := start + PSBOpcodeSize; i < start+PSBSize; i += PSBRepeatSize {
				if d.data[i] != PSBHi || d.data[i+1] != PSBLo {
					return d.fail(ErrBadPSB, start, ext)
				}
			}
			p.Kind = KindPSB
			p.Size = PSBSize
			d.syncPos = start
		case ExtPSBEnd:
			p.Kind = KindPSBEnd
			p.Size = 2
		case ExtCBR:
			if start+2+CBRPayloadSize > len(d.data) {
				return d.fail(ErrTruncated, start, ext)
			}
			p.Kind = KindCBR
			p.Size = 2 + CBRPayloadSize
			p.Payload = uint64(binary.LittleEndian.Uint16(d.data[start+2:]))
		case ExtPTW:
			if start+2+PTWPayloadSize > len(d.data) {
				return d.fail(ErrTruncated, start, ext)
			}
			p.Kind = KindPTW
			p.Size = 2 + PTWPayloadSize
			p.Payload = binary.NativeEndian.Uint64(d.data[start+2:])
		default:
			return d.fail(ErrUnknownExtOpcode, start, ext)
		}

	case opcode&0x01 == 0:
		// Short TNT. Only the opcode byte is consumed.
		p.Kind = KindTNT8
		p.Size = 1

	default:
		// TSC, MODE, TIP, FUP, CYC and friends are not implemented.
		return d.fail(ErrUnknownOpcode, start, 0)
	}

	d.pos += p.Size
	return nil
}

func (d *Decoder) fail(err error, offset int, ext byte) error {
	return &DecodeError{Err: err, Offset: offset, Opcode: d.data[offset], Ext: ext}
}
