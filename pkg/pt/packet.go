// Package pt decodes Intel Processor Trace packet streams.
//
// Only the packets needed to locate synchronization points and to extract
// PTWRITE payloads are implemented. Every other packet kind stops decoding
// with an error.
package pt

import (
	"fmt"
	"strings"
)

// Opcodes and extended opcodes understood by the decoder.
const (
	OpcodePad byte = 0x00 // padding
	OpcodeExt byte = 0x02 // extended opcode follows

	ExtPSB    byte = 0x82 // packet stream boundary
	ExtPSBEnd byte = 0x23 // end of a PSB+ run
	ExtCBR    byte = 0x03 // core:bus ratio
	ExtPTW    byte = 0x12 // PTWRITE with 8 byte payload
)

// PSB layout. A PSB packet is the 2 byte unit {PSBHi, PSBLo} repeated eight
// times.
const (
	PSBHi = OpcodeExt
	PSBLo = ExtPSB

	// PSBRepeatCount is the number of repeats in the payload, not counting
	// the opcode pair.
	PSBRepeatCount = 7
	// PSBRepeatSize is the size of the repeated unit in bytes.
	PSBRepeatSize = 2
	// PSBOpcodeSize is the size of the opcode and extended opcode.
	PSBOpcodeSize  = 2
	PSBPayloadSize = PSBRepeatCount * PSBRepeatSize
	// PSBSize is the size of a complete PSB packet.
	PSBSize = PSBOpcodeSize + PSBPayloadSize

	CBRPayloadSize = 2
	PTWPayloadSize = 8
)

// Kind identifies the kind of a decoded packet.
type Kind byte

// Packet kinds recognized by the decoder.
const (
	KindPad    Kind = iota // PAD
	KindPSB                // PSB
	KindPSBEnd             // PSBEND
	KindCBR                // CBR, payload is the raw 2 byte ratio
	KindPTW                // PTW, payload is surfaced to callers
	KindTNT8               // short TNT, opcode byte only
	KindCount
)

var kindNames = [KindCount]string{
	KindPad:    "PAD",
	KindPSB:    "PSB",
	KindPSBEnd: "PSBEND",
	KindCBR:    "CBR",
	KindPTW:    "PTW",
	KindTNT8:   "TNT8",
}

func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// ParseKind returns the kind with the given name. Matching is case
// insensitive.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown packet kind: %q", name)
}

// Packet is a single decoded packet.
type Packet struct {
	// Kind is the kind of packet.
	Kind Kind
	// Offset is the position of the first opcode byte relative to the start
	// of the decoder's buffer.
	Offset int
	// Size is the number of bytes occupied by the packet, opcodes included.
	Size int
	// Opcode is the first byte of the packet.
	Opcode byte
	// Payload holds the PTW value or the CBR ratio. It is zero for all other
	// kinds.
	Payload uint64
}

func (p Packet) String() string {
	switch p.Kind {
	case KindPTW:
		return fmt.Sprintf("%#08x %s payload=%#x", p.Offset, p.Kind, p.Payload)
	case KindCBR:
		return fmt.Sprintf("%#08x %s ratio=%d", p.Offset, p.Kind, p.Payload&0xff)
	case KindTNT8:
		return fmt.Sprintf("%#08x %s opcode=%#04x", p.Offset, p.Kind, p.Opcode)
	default:
		return fmt.Sprintf("%#08x %s", p.Offset, p.Kind)
	}
}
