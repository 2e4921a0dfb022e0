// Package pipeline implements the assembled chain of elements between
// one reader and one writer I/O endpoint: a bound task, a parent/
// children list for cascaded pipelines, event fan-out, and the overall
// state computed as the supremum of its elements' states (spec.md §4.8).
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/gmfobj"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/task"
)

// Event is the packet delivered to a pipeline's registered callback and
// cascaded to any parent pipeline; it is element.Event verbatim, since
// spec.md §6/§4.8 describe the same {from, type, sub, payload, size}
// shape at both layers.
type Event = element.Event

// Pipeline owns a connected chain of element instances plus one reader
// I/O, one writer I/O, a bound task, and a parent/children list for
// cascaded pipelines (spec.md §3).
type Pipeline struct {
	obj *gmfobj.Object

	mu       sync.Mutex
	elements []element.Element
	reader   ioendpoint.Endpoint
	writer   ioendpoint.Endpoint
	tk       *task.Task

	parent   *Pipeline
	children []*Pipeline

	onEvent func(Event)

	tickBudget time.Duration
}

// New returns a NONE-state pipeline over the given element chain, with
// reader feeding the head element's in-port and writer draining the tail
// element's out-port (both may be nil for an all-internal chain, e.g. a
// test harness that links ports directly).
func New(tag string, elements []element.Element, reader, writer ioendpoint.Endpoint) *Pipeline {
	p := &Pipeline{
		obj:        gmfobj.New(tag, nil, nil),
		elements:   elements,
		reader:     reader,
		writer:     writer,
		tickBudget: time.Second,
	}
	for _, el := range elements {
		el.OnEvent(p.onElementEvent)
	}
	return p
}

func (p *Pipeline) Tag() string { return p.obj.Tag() }

// SetTickBudget overrides the per-job acquire timeout used by the bound
// task (default 1s).
func (p *Pipeline) SetTickBudget(d time.Duration) { p.tickBudget = d }

// State computes the overall pipeline state as the supremum of its
// elements' states.
func (p *Pipeline) State() State {
	p.mu.Lock()
	els := append([]element.Element(nil), p.elements...)
	p.mu.Unlock()

	states := make([]State, len(els))
	for i, el := range els {
		states[i] = el.State()
	}
	return supremum(states)
}

// Element looks up a member element by tag, for method-registry dispatch
// from a control plane (gmfconfig/control) that addresses elements by
// name rather than holding direct references.
func (p *Pipeline) Element(tag string) (element.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, el := range p.elements {
		if el.Tag() == tag {
			return el, true
		}
	}
	return nil, false
}

// OnEvent registers the callback this pipeline's own and its elements'
// events are delivered through.
func (p *Pipeline) OnEvent(cb func(Event)) {
	p.mu.Lock()
	p.onEvent = cb
	p.mu.Unlock()
}

// AddChild registers child as a cascaded sub-pipeline: child events are
// forwarded to p's own callback. Children forward in registration order
// when several fire around the same time (spec.md §9's Open Question
// resolution — the source leaves the order unspecified, so registration
// order is what p.mu's serialized AddChild calls naturally provide).
func (p *Pipeline) AddChild(child *Pipeline) {
	p.mu.Lock()
	child.parent = p
	p.children = append(p.children, child)
	p.mu.Unlock()
	child.OnEvent(func(e Event) { p.emit(e) })
}

func (p *Pipeline) onElementEvent(e Event) { p.emit(e) }

func (p *Pipeline) emit(e Event) {
	p.mu.Lock()
	cb := p.onEvent
	p.mu.Unlock()
	if cb != nil {
		cb(e)
	}
}

// Run assembles a Task over the element chain and starts it; Run is only
// valid from NONE.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.tk != nil {
		p.mu.Unlock()
		return gmferr.New("pipeline.Run", gmferr.InvalidArgument, "already running", nil)
	}
	tk := task.New(p.elements, p.tickBudget)
	tk.OnFail(func(el element.Element, err error) {
		p.emit(Event{From: el.Tag(), Type: element.StateChange, Sub: element.SubError})
	})
	p.tk = tk
	p.mu.Unlock()

	tk.Run(ctx)
	return nil
}

// Wait blocks until the bound task's run completes.
func (p *Pipeline) Wait() (task.Status, error) {
	p.mu.Lock()
	tk := p.tk
	p.mu.Unlock()
	if tk == nil {
		return task.StatusFinished, gmferr.New("pipeline.Wait", gmferr.InvalidArgument, "not running", nil)
	}
	return tk.Wait()
}

// Pause suspends job scheduling on the bound task.
func (p *Pipeline) Pause() error {
	tk, err := p.requireTask("pipeline.Pause")
	if err != nil {
		return err
	}
	tk.Pause()
	return nil
}

// Resume clears Pause on the bound task.
func (p *Pipeline) Resume() error {
	tk, err := p.requireTask("pipeline.Resume")
	if err != nil {
		return err
	}
	tk.Resume()
	return nil
}

// Stop aborts every element's buses and runs remaining CLOSEs.
func (p *Pipeline) Stop() error {
	tk, err := p.requireTask("pipeline.Stop")
	if err != nil {
		return err
	}
	tk.Stop()
	return nil
}

// Reset returns every element to NONE and drops the bound task, so Run
// can be called again (spec.md §4.4: "NONE may be reached again via
// reset").
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, el := range p.elements {
		if el.State() != None {
			if err := el.Transition(None); err != nil {
				return err
			}
		}
	}
	p.tk = nil
	return nil
}

// Destroy releases the pipeline's own Object resources (reader/writer
// close is the caller's responsibility, matching ioendpoint's
// best-effort, never-masks-an-earlier-error Close policy).
func (p *Pipeline) Destroy() {
	p.obj.Destroy()
}

func (p *Pipeline) requireTask(op string) (*task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tk == nil {
		return nil, gmferr.New(op, gmferr.InvalidArgument, "pipeline is not running", nil)
	}
	return p.tk, nil
}
