// Package pool implements the registry of element and I/O factories
// addressable by tag, and the assembler that instantiates and links a
// pipeline from a named chain (spec.md §4.6).
package pool

import (
	"fmt"
	"sync"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
)

// ElementFactory constructs a fresh element.Element instance named tag,
// configured with config (opaque, element-specific).
type ElementFactory func(tag string, config any) (element.Element, error)

// IOFactory constructs a fresh ioendpoint.Endpoint instance.
type IOFactory func(tag string, config any) (ioendpoint.Endpoint, error)

// Pool is the package-level-style registry of factories, generalized
// from the teacher's device Builder/RegisterBuilder/findBuilder pattern
// (services/hal/registry.go) from device-builder to element/IO-factory
// scope: lock-guarded maps, panic on duplicate registration to catch
// start-up mistakes early rather than silently shadow a factory.
type Pool struct {
	muElem   sync.RWMutex
	elements map[string]ElementFactory

	muIO sync.RWMutex
	io   map[string]IOFactory
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		elements: make(map[string]ElementFactory),
		io:       make(map[string]IOFactory),
	}
}

// RegisterElement installs a factory for a given element type string.
// Panics on duplicate registration, matching the teacher's
// RegisterBuilder.
func (p *Pool) RegisterElement(elemType string, f ElementFactory) {
	p.muElem.Lock()
	defer p.muElem.Unlock()
	if elemType == "" {
		panic("pool: empty element type")
	}
	if _, exists := p.elements[elemType]; exists {
		panic(fmt.Sprintf("pool: element factory already registered for type %q", elemType))
	}
	p.elements[elemType] = f
}

// RegisterIO installs a factory for a given I/O scheme/type string.
func (p *Pool) RegisterIO(ioType string, f IOFactory) {
	p.muIO.Lock()
	defer p.muIO.Unlock()
	if ioType == "" {
		panic("pool: empty io type")
	}
	if _, exists := p.io[ioType]; exists {
		panic(fmt.Sprintf("pool: io factory already registered for type %q", ioType))
	}
	p.io[ioType] = f
}

// NewElement looks up elemType and builds a new instance named tag.
func (p *Pool) NewElement(elemType, tag string, config any) (element.Element, error) {
	p.muElem.RLock()
	f, ok := p.elements[elemType]
	p.muElem.RUnlock()
	if !ok {
		return nil, gmferr.New("pool.NewElement", gmferr.NotFound, "no element factory for type "+elemType, nil)
	}
	el, err := f(tag, config)
	if err != nil {
		return nil, gmferr.New("pool.NewElement", gmferr.OutOfMemory, "build element "+tag, err)
	}
	return el, nil
}

// NewIO looks up ioType and builds a new Endpoint.
func (p *Pool) NewIO(ioType, tag string, config any) (ioendpoint.Endpoint, error) {
	p.muIO.RLock()
	f, ok := p.io[ioType]
	p.muIO.RUnlock()
	if !ok {
		return nil, gmferr.New("pool.NewIO", gmferr.NotFound, "no io factory for type "+ioType, nil)
	}
	ep, err := f(tag, config)
	if err != nil {
		return nil, gmferr.New("pool.NewIO", gmferr.OutOfMemory, "build io "+tag, err)
	}
	return ep, nil
}
