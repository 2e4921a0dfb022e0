package port

import (
	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/payload"
)

// LinkOptions tunes the buses Link picks when the two ports don't force a
// specific choice.
type LinkOptions struct {
	RingSize  int // power of two, used for Byte pairings (a shared pair uses max(SizeHint, RingSize))
	FifoDepth int // used for Block pairings where either side is Multi
	Alloc     payload.Allocator
}

func (o LinkOptions) withDefaults() LinkOptions {
	if o.RingSize <= 0 {
		o.RingSize = 4096
	}
	if o.FifoDepth <= 0 {
		o.FifoDepth = 8
	}
	return o
}

// Link connects an out-port to an in-port per spec.md §4.2: it resolves a
// capability intersection, picks the bus variant (ring for every byte
// pairing, fifo for a block pairing where either side is Multi, block for
// the other block pairings), shares buffers iff both ends
// advertise Shareable with compatible SizeHints, and otherwise allocates
// an owned intermediate buffer sized max(out, in).
func Link(out, in *Port, opts LinkOptions) error {
	if out.Dir != Out || in.Dir != In {
		return gmferr.New("port.Link", gmferr.InvalidArgument, "out must be an out-port and in an in-port", nil)
	}
	if out.Caps.Granularity != in.Caps.Granularity {
		return gmferr.New("port.Link", gmferr.NotSupported, "granularity mismatch", nil)
	}
	opts = opts.withDefaults()

	share := out.Caps.Shareable && in.Caps.Shareable && sizesCompatible(out.Caps.SizeHint, in.Caps.SizeHint)

	var bus databus.Bus
	switch out.Caps.Granularity {
	case Byte:
		if share {
			// A byte-granular pair that both sides mark shareable still
			// moves through the ring: shareable only changes whether a
			// boundary copy happens elsewhere (e.g. an I/O endpoint
			// handing its buffer straight into the ring's backing
			// array is out of scope for a pure SPSC ring), so plain
			// Ring already satisfies the no-extra-copy requirement for
			// byte streams.
			bus = databus.NewRing(maxInt(out.Caps.SizeHint, opts.RingSize))
		} else {
			bus = databus.NewRing(opts.RingSize)
		}
	case Block:
		frame := maxInt(out.Caps.SizeHint, in.Caps.SizeHint)
		if frame <= 0 {
			frame = 4096
		}
		if out.Caps.Cardinality == Multi || in.Caps.Cardinality == Multi {
			bus = databus.NewFifo(opts.FifoDepth)
		} else {
			bus = databus.NewBlock(frame, share, opts.Alloc)
		}
	default:
		return gmferr.New("port.Link", gmferr.InvalidArgument, "unknown granularity", nil)
	}

	out.bus, in.bus = bus, bus
	out.peer, in.peer = in, out
	out.shared, in.shared = share, share
	return nil
}

func sizesCompatible(a, b int) bool {
	if a == 0 || b == 0 {
		return true // unspecified size hint never blocks sharing
	}
	return a == b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
