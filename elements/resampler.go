package elements

import (
	"context"
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/port"
	"github.com/jangala-dev/gmf/x/mathx"
)

// SampleInfo is the AudioElement specialisation's per-specialisation
// payload (spec.md §3: "Specialisations... add domain state (file info,
// sample info, metadata)"): mono 16-bit PCM described by its rate.
type SampleInfo struct {
	InRateHz  uint32
	OutRateHz uint32
}

// Resampler performs linear sample-rate conversion on mono 16-bit PCM,
// built on the teacher's x/mathx.LerpU16 interpolation helper (originally
// used to ramp a PWM level, here reused as the interpolation kernel
// between adjacent input samples).
type Resampler struct {
	*element.Base
	info      SampleInfo
	frameSize int
	acquireTO time.Duration

	// carry holds the last sample of the previous frame so interpolation
	// is continuous across Process calls instead of resetting to zero at
	// every frame boundary.
	carry     uint16
	haveCarry bool
	pos       float64 // fractional input-sample position of the next output sample
}

// NewResampler returns a Resampler converting info.InRateHz to
// info.OutRateHz, operating on frameSize-byte (so frameSize/2 sample)
// blocks of little-endian uint16 PCM.
func NewResampler(tag string, frameSize int, info SampleInfo) *Resampler {
	r := &Resampler{
		Base:      element.NewBase(tag, info, nil),
		info:      info,
		frameSize: frameSize,
		acquireTO: time.Second,
	}
	caps := port.Caps{Granularity: port.Block, Shareable: false, SizeHint: frameSize}
	r.AddInPort(port.New("in", port.In, caps))
	r.AddOutPort(port.New("out", port.Out, caps))
	return r
}

func (r *Resampler) Open(ctx context.Context) error {
	r.MarkOpened()
	return nil
}

func (r *Resampler) Process(ctx context.Context) (element.JobStatus, error) {
	in, _ := r.Port("in")
	out, _ := r.Port("out")

	rp, st, err := in.AcquireRead(r.frameSize, r.acquireTO)
	if err != nil {
		return element.JobFail, err
	}
	switch st {
	case databus.StatusDone:
		r.forwardDone(out)
		return element.JobDone, nil
	case databus.StatusTimeout:
		return element.JobTruncate, nil
	case databus.StatusAbort:
		return element.JobFail, nil
	}

	inSamples := decodeU16LE(rp.View())
	outSamples := r.resample(inSamples)
	need := len(outSamples) * 2

	wp, st, err := out.AcquireWrite(need, r.acquireTO)
	if err != nil {
		_ = in.ReleaseRead(rp)
		return element.JobFail, err
	}
	n := encodeU16LE(wp.Bytes, outSamples)
	wp.Valid = n
	done := rp.Done

	if err := out.ReleaseWrite(wp, done); err != nil {
		_ = in.ReleaseRead(rp)
		return element.JobFail, err
	}
	if err := in.ReleaseRead(rp); err != nil {
		return element.JobFail, err
	}
	if done {
		return element.JobDone, nil
	}
	return element.JobOK, nil
}

// forwardDone relays end-of-stream one hop downstream (see the matching
// helper on Passthrough/RateLimiter): a bus only surfaces StatusDone to
// its reader after its writer has released with done=true, so an upstream
// Done must be re-issued rather than swallowed.
func (r *Resampler) forwardDone(out *port.Port) {
	wp, st, err := out.AcquireWrite(0, r.acquireTO)
	if err != nil || st != databus.StatusOK {
		return
	}
	_ = out.ReleaseWrite(wp, true)
}

func (r *Resampler) Close() error { return nil }

// resample linearly interpolates in (at info.InRateHz) to info.OutRateHz,
// stepping the fractional input position by the rate ratio per output
// sample and interpolating between the two bracketing input samples with
// mathx.LerpU16.
func (r *Resampler) resample(in []uint16) []uint16 {
	if len(in) == 0 || r.info.OutRateHz == 0 {
		return nil
	}
	ratio := float64(r.info.InRateHz) / float64(r.info.OutRateHz)

	ext := in
	if r.haveCarry {
		ext = make([]uint16, 0, len(in)+1)
		ext = append(ext, r.carry)
		ext = append(ext, in...)
	}

	var out []uint16
	for r.pos < float64(len(ext)-1) {
		i0 := int(r.pos)
		i1 := mathx.Min(i0+1, len(ext)-1)
		frac := r.pos - float64(i0)
		t := uint16(mathx.Clamp(frac*65535, 0, 65535))
		out = append(out, mathx.LerpU16(ext[i0], ext[i1], t))
		r.pos += ratio
	}
	r.pos -= float64(len(ext) - 1)
	r.carry = ext[len(ext)-1]
	r.haveCarry = true
	return out
}

func decodeU16LE(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return out
}

func encodeU16LE(buf []byte, samples []uint16) int {
	n := 0
	for _, s := range samples {
		if n+2 > len(buf) {
			break
		}
		buf[n] = byte(s)
		buf[n+1] = byte(s >> 8)
		n += 2
	}
	return n
}
