//go:build rp2040 || rp2350

// Package codecio implements the codec:// ioendpoint sink for the
// embedded "play to codec device" scenario (spec.md §8 scenario 1). On
// the rp2040/rp2350 targets it drives an I2S writer behind
// tinygo.org/x/drivers' narrow transport interfaces, the same
// narrow-interface-over-concrete-driver shape as the teacher's
// drivers.I2C usage in services/hal/internal/platform; off-target it
// falls back to an in-memory stand-in (codecio_host.go).
package codecio

import (
	"time"

	"tinygo.org/x/drivers"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// I2SWriter is the narrow capability codecio needs from a concrete I2S
// peripheral — deliberately smaller than drivers' full I2S surface, the
// same "only the methods this call site needs" discipline the teacher
// applies to its own drivers.I2C usage in services/hal/internal/platform.
type I2SWriter interface {
	WriteMono(samples []uint16) error
}

// Endpoint is a codec device sink: mono 16-bit PCM in, audio out. Many
// audio codecs are controlled over I2C (sample rate, volume, power
// state) while the samples themselves ride I2S, so Endpoint optionally
// takes the drivers.I2C control bus the teacher's platform factories
// already construct, and initializes the codec over it before the first
// write.
type Endpoint struct {
	i2s     I2SWriter
	ctrl    drivers.I2C
	ctrlAddr uint16
	inited  bool
}

// New returns a codec endpoint writing to i2s, optionally initializing
// the codec over an I2C control bus at ctrlAddr (ctrl may be nil if the
// device needs no control-plane setup).
func New(i2s I2SWriter, ctrl drivers.I2C, ctrlAddr uint16) *Endpoint {
	return &Endpoint{i2s: i2s, ctrl: ctrl, ctrlAddr: ctrlAddr}
}

func (e *Endpoint) Open() error {
	if e.i2s == nil {
		return gmferr.New("codecio.Open", gmferr.InvalidArgument, "no I2S writer configured", nil)
	}
	if e.ctrl != nil {
		// Power-up/init sequence is device-specific; a concrete codec
		// driver supplies the actual register writes. Here we only
		// confirm the control bus answers before accepting writes.
		if err := e.ctrl.Tx(e.ctrlAddr, nil, nil); err != nil {
			return gmferr.New("codecio.Open", gmferr.IoError, "codec control bus", err)
		}
	}
	e.inited = true
	return nil
}

func (e *Endpoint) Seek(offset int64, whence int) (int64, error) {
	return 0, gmferr.New("codecio.Seek", gmferr.NotSupported, "codec sink is not seekable", nil)
}

func (e *Endpoint) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	return nil, ioendpoint.StatusFail, gmferr.New("codecio.AcquireRead", gmferr.NotSupported, "codec sink is write-only", nil)
}

func (e *Endpoint) ReleaseRead(p *payload.Payload) error {
	return gmferr.New("codecio.ReleaseRead", gmferr.NotSupported, "codec sink is write-only", nil)
}

func (e *Endpoint) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	return payload.New(make([]byte, wanted), 0, false), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseWrite(p *payload.Payload, done bool) error {
	if !e.inited {
		return gmferr.New("codecio.ReleaseWrite", gmferr.InvalidArgument, "codec not open", nil)
	}
	if p == nil || p.Valid == 0 {
		return nil
	}
	samples := make([]uint16, p.Valid/2)
	for i := range samples {
		samples[i] = uint16(p.Bytes[2*i]) | uint16(p.Bytes[2*i+1])<<8
	}
	if err := e.i2s.WriteMono(samples); err != nil {
		return gmferr.New("codecio.ReleaseWrite", gmferr.IoError, "write", err)
	}
	return nil
}

func (e *Endpoint) Size() int64 { return 0 }

func (e *Endpoint) Close() error { return nil }
