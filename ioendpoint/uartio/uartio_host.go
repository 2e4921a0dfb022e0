//go:build !rp2040 && !rp2350

package uartio

import (
	"time"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// Endpoint is a host-side stand-in for the rp2040/rp2350 UART backend: an
// in-memory loopback buffer, enough for pipelines built and tested off
// target to exercise a uart:// element without embedded hardware.
type Endpoint struct {
	port     string
	baudRate uint32

	buf []byte
	pos int
}

// New returns an unopened host UART stub.
func New(port string, baudRate uint32) *Endpoint {
	return &Endpoint{port: port, baudRate: baudRate}
}

func (e *Endpoint) Open() error { return nil }

func (e *Endpoint) Seek(offset int64, whence int) (int64, error) {
	return 0, gmferr.New("uartio.Seek", gmferr.NotSupported, "uart streams are not seekable", nil)
}

func (e *Endpoint) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.pos >= len(e.buf) {
		return nil, ioendpoint.StatusTimeout, nil
	}
	end := e.pos + wanted
	if end > len(e.buf) {
		end = len(e.buf)
	}
	n := end - e.pos
	out := make([]byte, n)
	copy(out, e.buf[e.pos:end])
	e.pos = end
	return payload.New(out, n, false), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseRead(p *payload.Payload) error {
	if p != nil {
		p.Release()
	}
	return nil
}

func (e *Endpoint) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	return payload.New(make([]byte, wanted), 0, false), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseWrite(p *payload.Payload, done bool) error {
	if p != nil && p.Valid > 0 {
		e.buf = append(e.buf, p.View()...)
	}
	return nil
}

func (e *Endpoint) Size() int64 { return int64(len(e.buf)) }

func (e *Endpoint) Close() error { return nil }
