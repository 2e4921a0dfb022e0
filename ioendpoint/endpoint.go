// Package ioendpoint implements the I/O endpoint sitting at the head or
// tail of a pipeline: a source or sink behind a narrow abstract
// interface, per spec.md §4.9/§6. Concrete backends live in subpackages
// (fileio, httpio, embedio, uartio, codecio).
package ioendpoint

import (
	"time"

	"github.com/jangala-dev/gmf/payload"
)

// Endpoint is the contract every I/O backend satisfies: open prepares
// the resource, acquire/release honour share/copy semantics identically
// to inter-element ports, seek is optional, and Size reports total bytes
// when known.
type Endpoint interface {
	Open() error

	// Seek repositions the endpoint if supported; a gmferr.NotSupported
	// error otherwise.
	Seek(offset int64, whence int) (int64, error)

	AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, Status, error)
	ReleaseRead(p *payload.Payload) error
	AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, Status, error)
	ReleaseWrite(p *payload.Payload, done bool) error

	// Size returns total bytes when known, 0 otherwise.
	Size() int64

	Close() error
}

// Status mirrors databus.Status so an Endpoint's acquire/release contract
// reads identically to a port's, without importing databus into every
// backend just for the enum.
type Status int

const (
	StatusOK Status = iota
	StatusDone
	StatusTimeout
	StatusAbort
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusDone:
		return "DONE"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusAbort:
		return "ABORT"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}
