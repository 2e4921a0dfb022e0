package databus

import (
	"sync/atomic"
	"time"

	"github.com/jangala-dev/gmf/payload"
)

// Block is a fixed-frame handoff bus. In pass-through mode the producer's
// buffer pointer is forwarded to the consumer untouched (refcount bumped,
// zero copy); otherwise the bus owns a single intermediate buffer
// allocated at link time, which AcquireWrite hands to the producer to fill
// in place and ReleaseWrite passes to the consumer; the bus itself does
// not copy on release. Either way, depth is exactly one frame in flight per
// direction, matching "fixed-size block handoff".
type Block struct {
	frameSize  int
	passThrough bool
	alloc      payload.Allocator

	writeSlot chan *payload.Payload // producer -> bus handoff
	freeSlot  chan *payload.Payload // owned buffer recycled back to the writer, non-pass-through only

	abortCh chan struct{}
	aborted atomic.Bool
	done    atomic.Bool
}

// NewBlock returns a Block bus. When passThrough is true, the producer's
// own buffer is forwarded to the consumer with a bumped refcount; when
// false, the bus allocates its own frameSize buffer via alloc (or the
// heap, if alloc is nil) and lends that buffer to the producer on each
// AcquireWrite; ReleaseWrite does not copy.
func NewBlock(frameSize int, passThrough bool, alloc payload.Allocator) *Block {
	if alloc == nil {
		alloc = payload.HeapAllocator{}
	}
	b := &Block{
		frameSize:   frameSize,
		passThrough: passThrough,
		alloc:       alloc,
		writeSlot:   make(chan *payload.Payload, 1),
		freeSlot:    make(chan *payload.Payload, 1),
		abortCh:     make(chan struct{}),
	}
	if !passThrough {
		b.freeSlot <- payload.New(alloc.Get(frameSize), 0, false)
	}
	return b
}

func (b *Block) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, Status, error) {
	if b.aborted.Load() {
		return nil, StatusAbort, nil
	}
	if wanted == 0 {
		return payload.New(nil, 0, false), StatusOK, nil
	}
	if b.passThrough {
		n := wanted
		if n > b.frameSize {
			n = b.frameSize
		}
		return payload.NewShared(b.alloc.Get(n), 0, false), StatusOK, nil
	}

	t := timeoutChan(timeout)
	select {
	case <-b.abortCh:
		return nil, StatusAbort, nil
	case p := <-b.freeSlot:
		p.Valid = 0
		p.Done = false
		return p, StatusOK, nil
	case <-t:
		return nil, StatusTimeout, nil
	}
}

func (b *Block) ReleaseWrite(p *payload.Payload, done bool) error {
	if done {
		b.done.Store(true)
	}
	if p == nil {
		return nil
	}
	select {
	case b.writeSlot <- p:
	case <-b.abortCh:
	}
	return nil
}

func (b *Block) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, Status, error) {
	if wanted == 0 {
		return payload.New(nil, 0, false), StatusOK, nil
	}
	if b.aborted.Load() {
		return nil, StatusAbort, nil
	}
	t := timeoutChan(timeout)
	select {
	case p := <-b.writeSlot:
		return p, StatusOK, nil
	case <-b.abortCh:
		return nil, StatusAbort, nil
	case <-t:
		if b.done.Load() {
			return payload.New(nil, 0, true), StatusDone, nil
		}
		return nil, StatusTimeout, nil
	}
}

func (b *Block) ReleaseRead(p *payload.Payload) error {
	if p == nil {
		return nil
	}
	if b.passThrough {
		p.Release()
		return nil
	}
	select {
	case b.freeSlot <- p:
	default:
	}
	return nil
}

func (b *Block) Abort() {
	if b.aborted.CompareAndSwap(false, true) {
		close(b.abortCh)
	}
}

func (b *Block) Reset() {
	b.aborted.Store(false)
	b.done.Store(false)
	b.abortCh = make(chan struct{})
	// Drain any stale frame so a fresh run starts empty.
	select {
	case <-b.writeSlot:
	default:
	}
	if !b.passThrough {
		select {
		case <-b.freeSlot:
		default:
		}
		b.freeSlot <- payload.New(b.alloc.Get(b.frameSize), 0, false)
	}
}

func (b *Block) Close() error { return nil }

func timeoutChan(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	return time.After(d)
}
