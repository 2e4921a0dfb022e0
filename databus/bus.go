// Package databus implements the port-level data bus: the
// acquire/release queue or ring a port mediates between one producer and
// one consumer. Three variants share one interface — Ring (byte-granular,
// blocking, SPSC), Block (fixed-frame handoff, pass-through capable) and
// Fifo (bounded queue of payload descriptors) — differing only in
// blocking, ordering and copy semantics, exactly as spec.md §4.1 asks.
package databus

import (
	"time"

	"github.com/jangala-dev/gmf/payload"
)

// Status is the outcome of one acquire/release call.
type Status int

const (
	// StatusOK reports a successful acquire with Valid > 0 bytes (Ring)
	// or exactly one block/item (Block/Fifo).
	StatusOK Status = iota
	// StatusDone reports a one-shot end-of-stream: remaining data (if
	// any) has been delivered and no further bytes will arrive.
	StatusDone
	// StatusTimeout reports the call's timeout budget elapsed with no
	// progress.
	StatusTimeout
	// StatusAbort reports the bus was aborted while the call was
	// blocked, or had already been aborted before the call began.
	StatusAbort
	// StatusFail reports an internal error; see the accompanying error.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDone:
		return "done"
	case StatusTimeout:
		return "timeout"
	case StatusAbort:
		return "abort"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Bus is the contract every variant satisfies. At most one goroutine may
// call the *Read methods concurrently, and at most one may call the
// *Write methods concurrently — enforcing more than that is the caller's
// (port's) job, not the bus's.
type Bus interface {
	// AcquireRead blocks until wanted bytes (Ring) or one block/item
	// (Block/Fifo) is available, the timeout elapses, or the bus is
	// aborted. A zero-length acquire (wanted == 0) returns immediately
	// with StatusOK and an empty, valid payload.
	AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, Status, error)
	// ReleaseRead returns p to the bus, advancing the read cursor by
	// p.Valid bytes (Ring) or freeing the slot (Block/Fifo).
	ReleaseRead(p *payload.Payload) error

	// AcquireWrite blocks until wanted bytes of write space (Ring) or one
	// free slot (Block/Fifo) is available, the timeout elapses, or the
	// bus is aborted.
	AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, Status, error)
	// ReleaseWrite publishes p (whose Valid bytes were written by the
	// caller) to the bus. done marks the payload as the final one the
	// producer will ever publish.
	ReleaseWrite(p *payload.Payload, done bool) error

	// Abort unblocks every pending and future acquire with StatusAbort
	// until Reset is called.
	Abort()
	// Reset clears Abort and the end-of-stream marker, readying the bus
	// for a fresh run.
	Reset()
	// Close releases the bus's resources. Acquire/Release after Close is
	// undefined.
	Close() error
}
