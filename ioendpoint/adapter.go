package ioendpoint

import (
	"context"
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/port"
)

// Source and Sink adapt an Endpoint into an element.Element with a single
// port, so the assembler can place a reader/writer at the head/tail of an
// element chain exactly as spec.md §8 scenario 1 describes it: "Build
// [file → dec → dec → dec → file]" treats the I/O endpoints as chain
// members, not a special case the task scheduler has to know about.

// chunkSize is the default transfer unit a Source/Sink moves per job when
// its port advertises no SizeHint.
const chunkSize = 4096

// Source reads from an Endpoint and writes into its single out-port,
// retiring with JobDone once the endpoint reports StatusDone on an empty
// read.
type Source struct {
	*element.Base
	ep Endpoint
}

// NewSource wraps ep as a chain-head element named tag, exposing one
// out-port with the given capabilities.
func NewSource(tag string, ep Endpoint, caps port.Caps) *Source {
	s := &Source{Base: element.NewBase(tag, nil, nil), ep: ep}
	s.AddOutPort(port.New("out", port.Out, caps))
	return s
}

func (s *Source) Open(ctx context.Context) error { return s.ep.Open() }

func (s *Source) Process(ctx context.Context) (element.JobStatus, error) {
	out, _ := s.Port("out")
	want := out.Caps.SizeHint
	if want <= 0 {
		want = chunkSize
	}

	rp, st, err := s.ep.AcquireRead(want, 100*time.Millisecond)
	if err != nil {
		return element.JobFail, err
	}
	switch st {
	case StatusTimeout:
		return element.JobOK, nil
	case StatusFail:
		return element.JobFail, err
	case StatusDone:
		if rp == nil || rp.Valid == 0 {
			if rp != nil {
				_ = s.ep.ReleaseRead(rp)
			}
			s.forwardDone(out)
			return element.JobDone, nil
		}
	}

	wp, wst, err := out.AcquireWrite(rp.Valid, time.Second)
	if err != nil {
		_ = s.ep.ReleaseRead(rp)
		return element.JobFail, err
	}
	if wst == databus.StatusAbort || wst == databus.StatusFail {
		_ = s.ep.ReleaseRead(rp)
		return element.JobDone, nil
	}
	n := copy(wp.Bytes, rp.View())
	wp.Valid = n
	done := st == StatusDone
	if err := out.ReleaseWrite(wp, done); err != nil {
		_ = s.ep.ReleaseRead(rp)
		return element.JobFail, err
	}
	if err := s.ep.ReleaseRead(rp); err != nil {
		return element.JobFail, err
	}
	if done {
		return element.JobDone, nil
	}
	return element.JobOK, nil
}

// forwardDone signals end-of-stream one hop downstream: a bus only
// reports StatusDone to its reader after its writer has released with
// done=true, so swallowing an upstream Done without relaying one of our
// own would leave the rest of the chain blocked waiting on a bus that
// never learns the stream ended.
func (s *Source) forwardDone(out *port.Port) {
	wp, st, err := out.AcquireWrite(0, time.Second)
	if err != nil || st != databus.StatusOK {
		return
	}
	_ = out.ReleaseWrite(wp, true)
}

func (s *Source) Close() error { return s.ep.Close() }

// Sink reads from its single in-port and writes into an Endpoint,
// retiring with JobDone once the in-port reports StatusDone.
type Sink struct {
	*element.Base
	ep Endpoint
}

// NewSink wraps ep as a chain-tail element named tag, exposing one
// in-port with the given capabilities.
func NewSink(tag string, ep Endpoint, caps port.Caps) *Sink {
	s := &Sink{Base: element.NewBase(tag, nil, nil), ep: ep}
	s.AddInPort(port.New("in", port.In, caps))
	return s
}

func (s *Sink) Open(ctx context.Context) error { return s.ep.Open() }

func (s *Sink) Process(ctx context.Context) (element.JobStatus, error) {
	in, _ := s.Port("in")
	want := in.Caps.SizeHint
	if want <= 0 {
		want = chunkSize
	}

	rp, st, err := in.AcquireRead(want, 100*time.Millisecond)
	if err != nil {
		return element.JobFail, err
	}
	switch st {
	case databus.StatusTimeout:
		return element.JobOK, nil
	case databus.StatusAbort, databus.StatusFail:
		return element.JobFail, err
	case databus.StatusDone:
		if rp == nil || rp.Valid == 0 {
			if rp != nil {
				_ = in.ReleaseRead(rp)
			}
			return element.JobDone, nil
		}
	}

	if rp.Valid > 0 {
		wp, _, err := s.ep.AcquireWrite(rp.Valid, time.Second)
		if err != nil {
			_ = in.ReleaseRead(rp)
			return element.JobFail, err
		}
		n := copy(wp.Bytes, rp.View())
		wp.Valid = n
		if err := s.ep.ReleaseWrite(wp, rp.Done); err != nil {
			_ = in.ReleaseRead(rp)
			return element.JobFail, err
		}
	}
	done := rp.Done
	if err := in.ReleaseRead(rp); err != nil {
		return element.JobFail, err
	}
	if done {
		return element.JobDone, nil
	}
	return element.JobOK, nil
}

func (s *Sink) Close() error { return s.ep.Close() }
