// Package element implements the GMF processing node: open/process/close
// ops, an input/output port set, a method registry, and the totalised
// state machine of spec.md §4.3/§4.4. Concrete elements embed *Base and
// supply the domain-specific Open/Process/Close.
package element

import (
	"context"
	"sync"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/gmfobj"
	"github.com/jangala-dev/gmf/method"
	"github.com/jangala-dev/gmf/port"
)

// Element is what the task scheduler and the pipeline assembler drive.
// Open/Process/Close are the ops exposed to the scheduler (spec.md §4.3);
// the rest are the application-facing ops (ports, methods, events).
type Element interface {
	Tag() string

	Open(ctx context.Context) error
	Process(ctx context.Context) (JobStatus, error)
	Close() error

	State() State
	Transition(to State) error
	InPorts() []*port.Port
	OutPorts() []*port.Port
	Port(name string) (*port.Port, bool)
	Methods() *method.Registry

	OnEvent(cb func(Event))
	ReportEvent(sub Sub, payload []byte)
}

// Base provides the bookkeeping every concrete element shares: object
// identity, state machine, port lists, method registry and event
// delivery. It mirrors the teacher's Adaptor-interface-plus-helper-funcs
// split in services/hal: concrete elements embed *Base and only
// implement the domain-specific Open/Process/Close.
type Base struct {
	obj *gmfobj.Object

	mu      sync.Mutex
	state   State
	opened  bool
	inPorts []*port.Port
	outPort []*port.Port
	methods *method.Registry
	onEvt   func(Event)
}

// NewBase constructs the shared bookkeeping for a new element instance.
// config is stored on the underlying Object (spec.md §2's "opaque
// config"); destroy runs when the Object is destroyed.
func NewBase(tag string, config any, destroy gmfobj.Destructor) *Base {
	return &Base{
		obj:     gmfobj.New(tag, config, destroy),
		methods: method.NewRegistry(),
	}
}

func (b *Base) Tag() string { return b.obj.Tag() }

func (b *Base) Config() any { return b.obj.Config() }

func (b *Base) Methods() *method.Registry { return b.methods }

func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// AddInPort/AddOutPort register a port at construction time, before the
// element is handed to the assembler for linking.
func (b *Base) AddInPort(p *port.Port) { b.mu.Lock(); b.inPorts = append(b.inPorts, p); b.mu.Unlock() }
func (b *Base) AddOutPort(p *port.Port) {
	b.mu.Lock()
	b.outPort = append(b.outPort, p)
	b.mu.Unlock()
}

func (b *Base) InPorts() []*port.Port {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*port.Port(nil), b.inPorts...)
}

func (b *Base) OutPorts() []*port.Port {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*port.Port(nil), b.outPort...)
}

func (b *Base) Port(name string) (*port.Port, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.inPorts {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range b.outPort {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// OnEvent registers the callback the task/pipeline wiring delivers
// events through. Only one callback is retained; the pipeline assembler
// is the sole intended caller.
func (b *Base) OnEvent(cb func(Event)) {
	b.mu.Lock()
	b.onEvt = cb
	b.mu.Unlock()
}

// ReportEvent lets a concrete element's Process publish an
// application-defined CUSTOM event alongside the state-change events Base
// emits on its own (spec.md §6's "report-event" op).
func (b *Base) ReportEvent(sub Sub, payload []byte) {
	b.emit(Event{From: b.Tag(), Type: CustomEvent, Sub: sub, Payload: payload, Size: len(payload)})
}

func (b *Base) emit(e Event) {
	b.mu.Lock()
	cb := b.onEvt
	b.mu.Unlock()
	if cb != nil {
		cb(e)
	}
}

// Transition drives the state machine per spec.md §4.4, rejecting any
// pair absent from the transition table and firing a StateChange event
// on every successful move, including into a terminal state (spec.md
// §4.4: "Terminal states fan an event to the pipeline").
func (b *Base) Transition(to State) error {
	b.mu.Lock()
	from := b.state
	if !ValidTransition(from, to) {
		b.mu.Unlock()
		return invalidTransitionErr(from, to)
	}
	b.state = to
	if to == None {
		b.opened = false
	}
	b.mu.Unlock()
	if from == None && to != None {
		b.obj.Seal()
	}
	b.emit(Event{From: b.Tag(), Type: StateChange, Sub: subFromState(to)})
	return nil
}

// MarkOpened/Opened track the "open returned OK exactly once before the
// matching close" invariant independent of the state machine (a RUNNING
// element that was since PAUSED is still "opened").
func (b *Base) MarkOpened()  { b.mu.Lock(); b.opened = true; b.mu.Unlock() }
func (b *Base) Opened() bool { b.mu.Lock(); defer b.mu.Unlock(); return b.opened }

func invalidTransitionErr(from, to State) error {
	return gmferr.New("element.Transition", gmferr.InvalidArgument,
		"invalid state transition "+from.String()+" -> "+to.String(), nil)
}
