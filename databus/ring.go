package databus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jangala-dev/gmf/payload"
	"github.com/jangala-dev/gmf/x/shmring"
)

// Ring is a single-producer/single-consumer byte-granular bus built
// directly on x/shmring's span API: WriteAcquire/WriteCommit and
// ReadAcquire/ReadRelease already give exactly the acquire/release
// contract spec.md §4.1 asks for — this type only adds the blocking,
// timeout and abort semantics the bare ring doesn't carry on its own.
type Ring struct {
	size int
	ring *shmring.Ring

	mu       sync.Mutex
	aborted  bool
	done     bool
	abortCh  chan struct{}
}

// NewRing returns a byte ring bus of the given power-of-two capacity.
func NewRing(size int) *Ring {
	r := &Ring{size: size, ring: shmring.New(size), abortCh: make(chan struct{})}
	return r
}

func (r *Ring) isAborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}

func (r *Ring) isDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Ring) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, Status, error) {
	if wanted == 0 {
		return payload.New(nil, 0, false), StatusOK, nil
	}
	if r.isAborted() {
		return nil, StatusAbort, nil
	}

	deadline := newDeadline(timeout)
	for {
		p1, _ := r.ring.ReadAcquire()
		if len(p1) > 0 {
			n := len(p1)
			if n > wanted {
				n = wanted
			}
			return payload.New(p1[:n], n, false), StatusOK, nil
		}
		if r.isDone() {
			return payload.New(nil, 0, true), StatusDone, nil
		}
		select {
		case <-r.abortCh:
			return nil, StatusAbort, nil
		case <-r.ring.Readable():
			continue
		case <-deadline.C(timeout):
			return nil, StatusTimeout, nil
		}
	}
}

func (r *Ring) ReleaseRead(p *payload.Payload) error {
	if p == nil || p.Valid == 0 {
		return nil
	}
	r.ring.ReadRelease(p.Valid)
	return nil
}

func (r *Ring) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, Status, error) {
	if wanted == 0 {
		return payload.New(nil, 0, false), StatusOK, nil
	}
	if r.isAborted() {
		return nil, StatusAbort, nil
	}

	deadline := newDeadline(timeout)
	for {
		p1, _ := r.ring.WriteAcquire()
		if len(p1) > 0 {
			n := len(p1)
			if n > wanted {
				n = wanted
			}
			return payload.New(p1[:n], n, false), StatusOK, nil
		}
		select {
		case <-r.abortCh:
			return nil, StatusAbort, nil
		case <-r.ring.Writable():
			continue
		case <-deadline.C(timeout):
			return nil, StatusTimeout, nil
		}
	}
}

func (r *Ring) ReleaseWrite(p *payload.Payload, done bool) error {
	if p != nil && p.Valid > 0 {
		r.ring.WriteCommit(p.Valid)
	}
	if done {
		r.mu.Lock()
		r.done = true
		r.mu.Unlock()
	}
	return nil
}

func (r *Ring) Abort() {
	r.mu.Lock()
	if !r.aborted {
		r.aborted = true
		close(r.abortCh)
	}
	r.mu.Unlock()
}

func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring = shmring.New(r.size)
	r.aborted = false
	r.done = false
	r.abortCh = make(chan struct{})
}

func (r *Ring) Close() error { return nil }

// deadline turns a timeout duration into a channel that fires once. The
// timer is not stopped when an acquire returns before it expires.
type deadline struct {
	timer *time.Timer
	ch    <-chan time.Time
	never atomic.Bool
}

func newDeadline(d time.Duration) *deadline {
	dl := &deadline{}
	if d <= 0 {
		dl.never.Store(true)
		return dl
	}
	dl.timer = time.NewTimer(d)
	dl.ch = dl.timer.C
	return dl
}

// C returns the deadline's fire channel. d is accepted for symmetry with
// callers that recompute timeout per iteration; this implementation fires
// once regardless of how many times C is called.
func (dl *deadline) C(time.Duration) <-chan time.Time {
	if dl.never.Load() {
		return nil
	}
	return dl.ch
}
