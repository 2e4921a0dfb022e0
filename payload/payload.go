// Package payload implements the buffer descriptor that moves through a
// port's data bus: a byte slice, a valid-size cursor, an end-of-stream
// marker and, for shareable ports, a reference count that decides when
// the backing buffer is returned to its allocator.
package payload

import "sync/atomic"

// Flags carries capability-derived bits the bus needs to remember about
// a payload once it has left the port that produced it.
type Flags uint8

const (
	// FlagShared marks a payload whose Bytes are owned by refcount, not
	// by whichever port currently holds it.
	FlagShared Flags = 1 << iota
)

// Payload is the unit passed through Acquire/Release. Invariant:
// 0 <= Valid <= len(Bytes).
type Payload struct {
	Bytes []byte
	Valid int  // bytes currently meaningful
	Done  bool // end-of-stream marker
	Flags Flags

	refcount *atomic.Int32 // nil unless Flags&FlagShared != 0
}

// New wraps buf as a non-shared payload with Valid bytes meaningful.
func New(buf []byte, valid int, done bool) *Payload {
	if valid < 0 {
		valid = 0
	}
	if valid > len(buf) {
		valid = len(buf)
	}
	return &Payload{Bytes: buf, Valid: valid, Done: done}
}

// NewShared wraps buf as a reference-counted payload with an initial
// count of 1 (the producer's own hold, released alongside the first
// consumer's).
func NewShared(buf []byte, valid int, done bool) *Payload {
	p := New(buf, valid, done)
	p.Flags |= FlagShared
	rc := &atomic.Int32{}
	rc.Store(1)
	p.refcount = rc
	return p
}

// View returns the meaningful slice, Bytes[:Valid].
func (p *Payload) View() []byte { return p.Bytes[:p.Valid] }

// Retain increments the refcount of a shared payload and returns a new
// *Payload header aliasing the same backing buffer — the zero-copy
// hand-off a pass-through block bus performs at link time.
func (p *Payload) Retain() *Payload {
	if p.refcount == nil {
		// Non-shareable: callers must not call Retain, but returning an
		// independent copy keeps the contract total instead of panicking.
		cp := *p
		return &cp
	}
	p.refcount.Add(1)
	cp := *p
	return &cp
}

// Release decrements the refcount of a shared payload and reports
// whether this was the final hold (the caller should return Bytes to its
// allocator). Non-shared payloads always report true.
func (p *Payload) Release() (last bool) {
	if p.refcount == nil {
		return true
	}
	return p.refcount.Add(-1) == 0
}

// Shared reports whether the payload is refcounted.
func (p *Payload) Shared() bool { return p.refcount != nil }
