package databus

import (
	"sync/atomic"
	"time"

	"github.com/jangala-dev/gmf/payload"
)

// Fifo is a bounded queue of payload descriptors: unlike Ring it carries
// whole payloads (possibly variable length), preserving FIFO order, per
// spec.md §4.1's "bounded queue of descriptor copies". Typical use is a
// port pair exchanging discrete records (e.g. parsed frames) rather than
// a raw byte stream.
type Fifo struct {
	q       chan *payload.Payload
	abortCh chan struct{}
	aborted atomic.Bool
	done    atomic.Bool
}

// NewFifo returns a Fifo bus with the given queue depth.
func NewFifo(depth int) *Fifo {
	if depth <= 0 {
		depth = 1
	}
	return &Fifo{q: make(chan *payload.Payload, depth), abortCh: make(chan struct{})}
}

func (f *Fifo) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, Status, error) {
	if f.aborted.Load() {
		return nil, StatusAbort, nil
	}
	// A Fifo's "slot" is logical space in the queue, not preallocated
	// bytes; the caller fills wanted bytes into a fresh buffer and
	// publishes it via ReleaseWrite, which is where backpressure bites.
	return payload.New(make([]byte, wanted), 0, false), StatusOK, nil
}

func (f *Fifo) ReleaseWrite(p *payload.Payload, done bool) error {
	if done {
		f.done.Store(true)
	}
	if p == nil {
		return nil
	}
	select {
	case f.q <- p:
		return nil
	case <-f.abortCh:
		return nil
	}
}

func (f *Fifo) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, Status, error) {
	if wanted == 0 {
		return payload.New(nil, 0, false), StatusOK, nil
	}
	if f.aborted.Load() {
		return nil, StatusAbort, nil
	}
	t := timeoutChan(timeout)
	select {
	case p := <-f.q:
		return p, StatusOK, nil
	case <-f.abortCh:
		return nil, StatusAbort, nil
	case <-t:
		if f.done.Load() && len(f.q) == 0 {
			return payload.New(nil, 0, true), StatusDone, nil
		}
		return nil, StatusTimeout, nil
	}
}

func (f *Fifo) ReleaseRead(p *payload.Payload) error {
	if p != nil {
		p.Release()
	}
	return nil
}

func (f *Fifo) Abort() {
	if f.aborted.CompareAndSwap(false, true) {
		close(f.abortCh)
	}
}

func (f *Fifo) Reset() {
	f.aborted.Store(false)
	f.done.Store(false)
	f.abortCh = make(chan struct{})
	for {
		select {
		case <-f.q:
		default:
			return
		}
	}
}

func (f *Fifo) Close() error { return nil }
