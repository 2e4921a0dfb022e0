// Package elements provides the built-in elements a freshly assembled
// pipeline can draw on: a 1:1 byte copy, a token-bucket rate limiter, a
// linear PCM resampler, and a one-in/two-out tee — enough to exercise
// the Block bus in both shared and copy mode and every job status end to
// end (SPEC_FULL.md §4.3). All of them declare single-cardinality Block
// ports, so none of them is linked over a Ring or a Fifo.
package elements

import (
	"context"
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/port"
)

// Passthrough copies bytes from its single in-port to its single out-port
// unchanged, exercising a Block pass-through link (port.Link shares the
// buffer directly when both ends are Shareable).
type Passthrough struct {
	*element.Base
	frameSize int
	acquireTO time.Duration
}

// NewPassthrough returns a Passthrough sized for frameSize-byte blocks.
func NewPassthrough(tag string, frameSize int) *Passthrough {
	p := &Passthrough{
		Base:      element.NewBase(tag, nil, nil),
		frameSize: frameSize,
		acquireTO: time.Second,
	}
	caps := port.Caps{Granularity: port.Block, Shareable: true, SizeHint: frameSize}
	p.AddInPort(port.New("in", port.In, caps))
	p.AddOutPort(port.New("out", port.Out, caps))
	return p
}

func (p *Passthrough) Open(ctx context.Context) error {
	p.MarkOpened()
	return nil
}

func (p *Passthrough) Process(ctx context.Context) (element.JobStatus, error) {
	in, _ := p.Port("in")
	out, _ := p.Port("out")

	rp, st, err := in.AcquireRead(p.frameSize, p.acquireTO)
	if err != nil {
		return element.JobFail, err
	}
	switch st {
	case databus.StatusDone:
		p.forwardDone(out)
		return element.JobDone, nil
	case databus.StatusTimeout:
		return element.JobTruncate, nil
	case databus.StatusAbort:
		return element.JobFail, nil
	}

	wp, st, err := out.AcquireWrite(rp.Valid, p.acquireTO)
	if err != nil {
		_ = in.ReleaseRead(rp)
		return element.JobFail, err
	}
	n := copy(wp.Bytes, rp.View())
	wp.Valid = n
	done := rp.Done

	if err := out.ReleaseWrite(wp, done); err != nil {
		_ = in.ReleaseRead(rp)
		return element.JobFail, err
	}
	if err := in.ReleaseRead(rp); err != nil {
		return element.JobFail, err
	}
	if n < rp.Valid {
		return element.JobTruncate, nil
	}
	if done {
		return element.JobDone, nil
	}
	return element.JobOK, nil
}

// forwardDone signals end-of-stream one hop downstream: a bus only
// reports StatusDone to its reader after its writer has released with
// done=true, so an element that swallows an upstream Done without
// relaying one of its own would leave every element after it blocked on a
// bus that never learns the stream ended.
func (p *Passthrough) forwardDone(out *port.Port) {
	wp, st, err := out.AcquireWrite(0, p.acquireTO)
	if err != nil || st != databus.StatusOK {
		return
	}
	_ = out.ReleaseWrite(wp, true)
}

func (p *Passthrough) Close() error { return nil }
