//go:build !rp2040 && !rp2350

package codecio

import (
	"time"

	"tinygo.org/x/drivers"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// I2SWriter mirrors the rp2040/rp2350 build's capability so pipeline
// code assembling a codecio.Endpoint compiles identically on both.
type I2SWriter interface {
	WriteMono(samples []uint16) error
}

// Endpoint is a host-side codec stand-in: it accumulates the mono PCM
// samples it was given instead of driving real I2S hardware, so a
// pipeline's "play to codec device" leg is testable off target.
type Endpoint struct {
	i2s      I2SWriter
	ctrl     drivers.I2C
	ctrlAddr uint16
	Written  []uint16
	inited   bool
}

// New returns an unopened host codec stub with the same signature as the
// rp2040/rp2350 build's New, so call sites build unchanged either way.
func New(i2s I2SWriter, ctrl drivers.I2C, ctrlAddr uint16) *Endpoint {
	return &Endpoint{i2s: i2s, ctrl: ctrl, ctrlAddr: ctrlAddr}
}

func (e *Endpoint) Open() error {
	if e.ctrl != nil {
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
	e.Written = append(e.Written, samples...)
	if e.i2s != nil {
		return e.i2s.WriteMono(samples)
	}
	return nil
}

func (e *Endpoint) Size() int64 { return 0 }

func (e *Endpoint) Close() error { return nil }
