// Package port implements the named in/out endpoint an element exposes,
// mediating acquire/release between two elements over a databus.Bus.
package port

import (
	"time"

	"github.com/jangala-dev/gmf/databus"
	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/payload"
)

// Direction distinguishes an in-port from an out-port.
type Direction uint8

const (
	In Direction = iota
	Out
)

// Granularity selects whether a port moves a byte stream or discrete
// blocks/records.
type Granularity uint8

const (
	Byte Granularity = iota
	Block
)

// Cardinality selects whether a port's bus serves a single peer or
// fans out/in across several.
type Cardinality uint8

const (
	Single Cardinality = iota
	Multi
)

// Caps is the capability set a port advertises at link time.
type Caps struct {
	Cardinality Cardinality
	Granularity Granularity
	Shareable   bool // payload pointers may be forwarded zero-copy
	SizeHint    int  // declared element-side size, in bytes
}

// Port is one named bus endpoint on an element.
type Port struct {
	Name string
	Dir  Direction
	Caps Caps

	bus    databus.Bus
	peer   *Port // back-reference to the linked port on the other element
	shared bool  // true once Link decided this pairing may share buffers
}

// New returns an unlinked port with the given capability set. Name and Dir
// only serve lookup/diagnostics; the bus is attached by Link.
func New(name string, dir Direction, caps Caps) *Port {
	return &Port{Name: name, Dir: dir, Caps: caps}
}

// Bus returns the port's current bus, or nil if unlinked.
func (p *Port) Bus() databus.Bus { return p.bus }

// Peer returns the linked port on the other element, or nil if unlinked.
func (p *Port) Peer() *Port { return p.peer }

// Shared reports whether this port's bus was set up for zero-copy
// pass-through.
func (p *Port) Shared() bool { return p.shared }

// AcquireRead/ReleaseRead/AcquireWrite/ReleaseWrite forward to the bus,
// failing fast with InvalidArgument if the port isn't linked yet — a
// clearer failure than a nil-pointer panic for a caller that forgot to
// assemble the pipeline first.
func (p *Port) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, databus.Status, error) {
	if p.bus == nil {
		return nil, databus.StatusFail, gmferr.New("port.AcquireRead", gmferr.InvalidArgument, "port not linked", nil)
	}
	return p.bus.AcquireRead(wanted, timeout)
}

func (p *Port) ReleaseRead(pl *payload.Payload) error {
	if p.bus == nil {
		return gmferr.New("port.ReleaseRead", gmferr.InvalidArgument, "port not linked", nil)
	}
	return p.bus.ReleaseRead(pl)
}

func (p *Port) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, databus.Status, error) {
	if p.bus == nil {
		return nil, databus.StatusFail, gmferr.New("port.AcquireWrite", gmferr.InvalidArgument, "port not linked", nil)
	}
	return p.bus.AcquireWrite(wanted, timeout)
}

func (p *Port) ReleaseWrite(pl *payload.Payload, done bool) error {
	if p.bus == nil {
		return gmferr.New("port.ReleaseWrite", gmferr.InvalidArgument, "port not linked", nil)
	}
	return p.bus.ReleaseWrite(pl, done)
}
