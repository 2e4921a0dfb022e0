package elements

import (
	"context"
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/port"
)

// TeeSplit has one in-port and two out-ports, fanning each input block
// out to both outputs — the cascaded-pipeline fan-out case SPEC_FULL.md
// §4.8/§9 calls for (e.g. one branch to a file writer, the other to a
// live monitor pipeline).
type TeeSplit struct {
	*element.Base
	frameSize int
	acquireTO time.Duration
}

// NewTeeSplit returns a TeeSplit operating on frameSize-byte blocks.
func NewTeeSplit(tag string, frameSize int) *TeeSplit {
	t := &TeeSplit{
		Base:      element.NewBase(tag, nil, nil),
		frameSize: frameSize,
		acquireTO: time.Second,
	}
	// Fanning one input to two outputs always copies: a single shared
	// payload handed to both downstream ports would need its own
	// branch-aware refcounting to release correctly, so both caps
	// declare Shareable false and Process copies explicitly.
	inCaps := port.Caps{Granularity: port.Block, Shareable: false, SizeHint: frameSize}
	outCaps := port.Caps{Granularity: port.Block, Shareable: false, SizeHint: frameSize}
	t.AddInPort(port.New("in", port.In, inCaps))
	t.AddOutPort(port.New("out_a", port.Out, outCaps))
	t.AddOutPort(port.New("out_b", port.Out, outCaps))
	return t
}

func (t *TeeSplit) Open(ctx context.Context) error {
	t.MarkOpened()
	return nil
}

func (t *TeeSplit) Process(ctx context.Context) (element.JobStatus, error) {
	in, _ := t.Port("in")
	outA, _ := t.Port("out_a")
	outB, _ := t.Port("out_b")

	rp, st, err := in.AcquireRead(t.frameSize, t.acquireTO)
	if err != nil {
		return element.JobFail, err
	}
	switch st {
	case databus.StatusDone:
		t.forwardDone(outA)
		t.forwardDone(outB)
		return element.JobDone, nil
	case databus.StatusTimeout:
		return element.JobTruncate, nil
	case databus.StatusAbort:
		return element.JobFail, nil
	}
	done := rp.Done

	for _, out := range []*port.Port{outA, outB} {
		wp, _, err := out.AcquireWrite(rp.Valid, t.acquireTO)
		if err != nil {
			_ = in.ReleaseRead(rp)
			return element.JobFail, err
		}
		n := copy(wp.Bytes, rp.View())
		wp.Valid = n
		if err := out.ReleaseWrite(wp, done); err != nil {
			_ = in.ReleaseRead(rp)
			return element.JobFail, err
		}
	}

	if err := in.ReleaseRead(rp); err != nil {
		return element.JobFail, err
	}
	if done {
		return element.JobDone, nil
	}
	return element.JobOK, nil
}

// forwardDone relays end-of-stream to out (see Passthrough.forwardDone):
// a bus only surfaces StatusDone to its reader after its writer has
// released with done=true, so an upstream Done must be re-issued on both
// branches rather than swallowed.
func (t *TeeSplit) forwardDone(out *port.Port) {
	wp, st, err := out.AcquireWrite(0, t.acquireTO)
	if err != nil || st != databus.StatusOK {
		return
	}
	_ = out.ReleaseWrite(wp, true)
}

func (t *TeeSplit) Close() error { return nil }
