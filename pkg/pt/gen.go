package pt

import (
	"bufio"
	"io"
	"math/rand/v2"
)

// GenOptions controls Generate.
type GenOptions struct {
	// Segments is the number of PSB segments to write.
	Segments int
	// Packets is the number of packets following the PSB+ header of each
	// segment.
	Packets int
	// Seed makes the output deterministic.
	Seed uint64
	// Garbage is the number of random bytes written before the first PSB.
	Garbage int
}

// GenSummary describes a generated stream.
type GenSummary struct {
	// Syncs holds the offset of every PSB packet.
	Syncs []int
	// Payloads holds every PTW payload in stream order.
	Payloads []uint64
	// Size is the total number of bytes written.
	Size int
}

// Generate writes a synthetic stream of PAD, PSB, PSBEND, CBR, PTW and TNT
// packets to w. Each segment starts with PSB, CBR, PSBEND and ends with a
// PAD so that no two pattern runs touch.
func Generate(w io.Writer, opt GenOptions) (GenSummary, error) {
	var (
		sum GenSummary
		bw  = bufio.NewWriter(w)
		enc = NewEncoder(bw)
		rng = rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
		p   Packet
	)

	// Garbage never contains the pattern bytes.
	garbage := make([]byte, opt.Garbage)
	for i := range garbage {
		b := byte(rng.UintN(256))
		if b == PSBHi || b == PSBLo {
			b = 0xff
		}
		garbage[i] = b
	}
	if err := enc.Write(garbage); err != nil {
		return sum, err
	}

	for s := 0; s < opt.Segments; s++ {
		sum.Syncs = append(sum.Syncs, enc.Offset())
		enc.Encode(&Packet{Kind: KindPSB})
		enc.Encode(&Packet{Kind: KindCBR, Payload: uint64(rng.UintN(64))})
		enc.Encode(&Packet{Kind: KindPSBEnd})

		for i := 0; i < opt.Packets; i++ {
			switch n := rng.UintN(8); {
			case n == 0:
				p = Packet{Kind: KindPad}
			case n < 4:
				p = Packet{Kind: KindTNT8, Opcode: tntOpcode(rng)}
			default:
				p = Packet{Kind: KindPTW, Payload: rng.Uint64()}
				sum.Payloads = append(sum.Payloads, p.Payload)
			}
			enc.Encode(&p)
		}
		if err := enc.Encode(&Packet{Kind: KindPad}); err != nil {
			return sum, err
		}
	}

	sum.Size = enc.Offset()
	return sum, bw.Flush()
}

// tntOpcode returns a random even opcode that is neither PAD nor EXT.
func tntOpcode(rng *rand.Rand) byte {
	for {
		b := byte(rng.UintN(128)) << 1
		if b != OpcodePad && b != OpcodeExt {
			return b
		}
	}
}
