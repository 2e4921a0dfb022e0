//go:build rp2040 || rp2350

// Package uartio implements the uart:// ioendpoint backend. On the
// rp2040/rp2350 targets it drives github.com/jangala-dev/tinygo-uartx,
// mirroring the teacher's rp2UART wrapper in
// services/hal/internal/platform/factories_rp2xxx.go; off-target it falls
// back to a host stub (uartio_host.go) so higher layers build and test
// without embedded hardware.
package uartio

import (
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// Endpoint is a UART-backed source/sink (e.g. a remote sensor stream or
// a codec control channel riding over UART).
type Endpoint struct {
	port     string // "uart0" or "uart1"
	baudRate uint32

	u *uartx.UART
}

// New returns an unopened UART endpoint. port selects UART0 vs UART1.
func New(port string, baudRate uint32) *Endpoint {
	return &Endpoint{port: port, baudRate: baudRate}
}

func (e *Endpoint) Open() error {
	var u *uartx.UART
	switch e.port {
	case "uart0":
		u = uartx.UART0
	case "uart1":
		u = uartx.UART1
	default:
		return gmferr.New("uartio.Open", gmferr.InvalidArgument, "unknown port "+e.port, nil)
	}
	if err := u.Configure(uartx.UARTConfig{}); err != nil {
		return gmferr.New("uartio.Open", gmferr.IoError, "configure "+e.port, err)
	}
	if e.baudRate != 0 {
		u.SetBaudRate(e.baudRate)
	}
	e.u = u
	return nil
}

func (e *Endpoint) Seek(offset int64, whence int) (int64, error) {
	return 0, gmferr.New("uartio.Seek", gmferr.NotSupported, "uart streams are not seekable", nil)
}

func (e *Endpoint) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.u == nil {
		return nil, ioendpoint.StatusFail, gmferr.New("uartio.AcquireRead", gmferr.InvalidArgument, "not open", nil)
	}
	buf := make([]byte, wanted)
	select {
	case <-e.u.Readable():
	case <-time.After(timeout):
		return nil, ioendpoint.StatusTimeout, nil
	}
	n, err := e.u.Read(buf)
	if err != nil {
		return nil, ioendpoint.StatusFail, gmferr.New("uartio.AcquireRead", gmferr.IoError, "read", err)
	}
	return payload.New(buf, n, false), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseRead(p *payload.Payload) error {
	if p != nil {
		p.Release()
	}
	return nil
}

func (e *Endpoint) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.u == nil {
		return nil, ioendpoint.StatusFail, gmferr.New("uartio.AcquireWrite", gmferr.InvalidArgument, "not open", nil)
	}
	return payload.New(make([]byte, wanted), 0, false), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseWrite(p *payload.Payload, done bool) error {
	if p == nil || p.Valid == 0 {
		return nil
	}
	if _, err := e.u.Write(p.View()); err != nil {
		return gmferr.New("uartio.ReleaseWrite", gmferr.IoError, "write", err)
	}
	return nil
}

func (e *Endpoint) Size() int64 { return 0 }

func (e *Endpoint) Close() error { return nil }
