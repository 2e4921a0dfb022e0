package elements

import (
	"context"
	"sync"
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/method"
	"github.com/jangala-dev/gmf/port"
	"github.com/jangala-dev/gmf/x/mathx"
	"github.com/jangala-dev/gmf/x/ramp"
)

// RateLimiterConfig is the plain value config a RateLimiter is
// constructed with; it is copied by value into the element's Object.
type RateLimiterConfig struct {
	BytesPerSec uint32
	BurstBytes  uint32
}

// RateLimiter throttles throughput to a token-bucket budget, generalized
// from the teacher's x/ramp+x/mathx linear-ramp idiom: instead of ramping
// a single level it ramps the number of bytes released each tick,
// deliberately producing less than requested (JobTruncate) whenever the
// bucket underflows demand, exercising spec.md §4.4's reschedule path.
type RateLimiter struct {
	*element.Base
	frameSize int
	bucket    float64
	burst     float64
	lastTick  time.Time
	acquireTO time.Duration

	muRate     sync.Mutex
	bytesPerMs float64
}

// NewRateLimiter returns a RateLimiter throttled to cfg.BytesPerSec with
// a cfg.BurstBytes token-bucket allowance (one frame when BurstBytes is 0).
func NewRateLimiter(tag string, frameSize int, cfg RateLimiterConfig) *RateLimiter {
	burst := float64(cfg.BurstBytes)
	if cfg.BurstBytes == 0 {
		burst = float64(frameSize)
	}
	r := &RateLimiter{
		Base:       element.NewBase(tag, cfg, nil),
		frameSize:  frameSize,
		bytesPerMs: float64(cfg.BytesPerSec) / 1000,
		burst:      burst,
		acquireTO:  time.Second,
	}
	r.bucket = r.burst
	caps := port.Caps{Granularity: port.Block, Shareable: false, SizeHint: frameSize}
	r.AddInPort(port.New("in", port.In, caps))
	r.AddOutPort(port.New("out", port.Out, caps))
	r.registerMethods()
	return r
}

func (r *RateLimiter) registerMethods() {
	d := method.NewDescriptor([]method.Field{
		{Name: "bytes_per_sec", Kind: method.Uint32, Size: 4, Offset: 0},
	})
	_ = r.Methods().Register("set_rate", d, func(d *method.Descriptor, buf []byte) error {
		v, err := method.Unmarshal(d, buf)
		if err != nil {
			return err
		}
		bps, _ := v["bytes_per_sec"].(uint32)
		r.setBytesPerSec(bps)
		return nil
	})
	_ = r.Methods().Register("get_rate", d, func(d *method.Descriptor, buf []byte) error {
		out, err := method.Marshal(d, method.Values{"bytes_per_sec": r.currentBytesPerSec()})
		if err != nil {
			return err
		}
		copy(buf, out)
		return nil
	})

	rampD := method.NewDescriptor([]method.Field{
		{Name: "target_bytes_per_sec", Kind: method.Uint32, Size: 4, Offset: 0},
		{Name: "duration_ms", Kind: method.Uint32, Size: 4, Offset: 4},
	})
	_ = r.Methods().Register("ramp_rate", rampD, r.invokeRampRate)
}

// invokeRampRate smoothly retargets the token-bucket fill rate over
// duration_ms, reusing the teacher's x/ramp.StartLinear stepper (the
// same synchronous ramp the HAL drives an LED/motor level through)
// against a uint16 representing kB/s in place of a brightness level, so
// a control-plane rate change doesn't slam a stream from one throughput
// straight to another.
func (r *RateLimiter) invokeRampRate(d *method.Descriptor, buf []byte) error {
	v, err := method.Unmarshal(d, buf)
	if err != nil {
		return err
	}
	target, _ := v["target_bytes_per_sec"].(uint32)
	durMs, _ := v["duration_ms"].(uint32)

	const kbTop = 1 << 16 - 1
	cur := uint16(mathx.Clamp(r.currentBytesPerSec()/1000, 0, kbTop))
	to := uint16(mathx.Clamp(target/1000, 0, kbTop))

	go ramp.StartLinear(cur, to, kbTop, durMs, 32,
		func(d time.Duration) bool { time.Sleep(d); return true },
		func(level uint16) { r.setBytesPerSec(uint32(level) * 1000) },
	)
	return nil
}

func (r *RateLimiter) currentBytesPerSec() uint32 {
	r.muRate.Lock()
	defer r.muRate.Unlock()
	return uint32(r.bytesPerMs * 1000)
}

func (r *RateLimiter) setBytesPerSec(bps uint32) {
	r.muRate.Lock()
	r.bytesPerMs = float64(bps) / 1000
	r.muRate.Unlock()
}

func (r *RateLimiter) refill() {
	now := time.Now()
	if r.lastTick.IsZero() {
		r.lastTick = now
		return
	}
	elapsedMs := float64(now.Sub(r.lastTick).Milliseconds())
	r.muRate.Lock()
	rate := r.bytesPerMs
	r.muRate.Unlock()
	r.bucket = mathx.Min(r.burst, r.bucket+elapsedMs*rate)
	r.lastTick = now
}

func (r *RateLimiter) Open(ctx context.Context) error {
	r.MarkOpened()
	return nil
}

func (r *RateLimiter) Process(ctx context.Context) (element.JobStatus, error) {
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

	r.refill()
	allowed := int(r.bucket)
	send := rp.Valid
	truncated := false
	if allowed < send {
		send = allowed
		truncated = true
	}

	wp, st, err := out.AcquireWrite(send, r.acquireTO)
	if err != nil {
		_ = in.ReleaseRead(rp)
		return element.JobFail, err
	}
	n := copy(wp.Bytes, rp.View()[:send])
	wp.Valid = n
	r.bucket -= float64(n)
	done := rp.Done && !truncated

	if err := out.ReleaseWrite(wp, done); err != nil {
		_ = in.ReleaseRead(rp)
		return element.JobFail, err
	}
	if err := in.ReleaseRead(rp); err != nil {
		return element.JobFail, err
	}
	if truncated {
		return element.JobTruncate, nil
	}
	if done {
		return element.JobDone, nil
	}
	return element.JobOK, nil
}

func (r *RateLimiter) forwardDone(out *port.Port) {
	wp, st, err := out.AcquireWrite(0, r.acquireTO)
	if err != nil || st != databus.StatusOK {
		return
	}
	_ = out.ReleaseWrite(wp, true)
}

func (r *RateLimiter) Close() error { return nil }
